package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "qalttab", cfg.SelfName)
	assert.Equal(t, DefaultReadBufferSize, cfg.IPC.ReadBufferSize)
	assert.Equal(t, []string{"libinput", "debug-events", "--show-keycodes"}, cfg.Input.MonitorCommand)
	assert.Equal(t, OrientationVertical, cfg.UI.Orientation)
	assert.Equal(t, []string{"Papirus", "Papirus-Dark", "Papirus-Light"}, cfg.Icons.Themes)
	assert.False(t, cfg.Inspector.Enabled)
}

func TestNewManager_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	m, err := NewManager(path)
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.Equal(t, path, m.GetConfigPath())
	assert.Equal(t, Defaults(), m.Get())
}

func TestNewManager_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log_level: debug
self_name: my-overlay
tick_interval: 16ms
ipc:
  timeout: 500ms
  notify_socket: /tmp/qalttab.sock
colors:
  bg_color: "#000000"
  text_color: "#ffffff"
  normal_group_color: "#111111"
  group_hover_color: "#222222cc"
sizes:
  window_size:
    width: 300
    height: 600
  group_spacing: 4
ui:
  orientation: vertical
  items: [name, group_name]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	m, err := NewManager(path)
	require.NoError(t, err)
	cfg := m.Get()

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "my-overlay", cfg.SelfName)
	assert.Equal(t, 16*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.IPC.Timeout)
	assert.Equal(t, "#222222cc", cfg.Colors.HoverGroup)
	assert.Equal(t, 600.0, cfg.Sizes.Window.Height)
	assert.Equal(t, []UIItem{UIItemName, UIItemGroupName}, cfg.UI.Items)

	// Unset sections fall back to defaults
	assert.Equal(t, Defaults().Input, cfg.Input)
	assert.Equal(t, DefaultReadBufferSize, cfg.IPC.ReadBufferSize)

	socket, err := cfg.NotifySocketPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/qalttab.sock", socket)
}

func TestNewManager_ParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
log_level = "warn"
self_name = "toml-overlay"

[colors]
bg_color = "#000000"
text_color = "#ffffff"
normal_group_color = "#111111"
group_hover_color = "#222222"

[ui]
orientation = "horizontal"
items = ["icon", "name"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	m, err := NewManager(path)
	require.NoError(t, err)
	cfg := m.Get()

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "toml-overlay", cfg.SelfName)
	assert.Equal(t, OrientationHorizontal, cfg.UI.Orientation)
	assert.Equal(t, []UIItem{UIItemIcon, UIItemName}, cfg.UI.Items)
	assert.Equal(t, Defaults().Sizes, cfg.Sizes)
}

func TestNewManager_CreatesDefaultTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := NewManager(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "self_name")
	assert.NotContains(t, string(data), "self_name:")
}

func TestNewManager_RejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("colors:\n  bg_color: red\n  text_color: \"#ffffff\"\n"), 0644))

	_, err := NewManager(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colors.bg_color")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero width", func(c *Config) { c.Sizes.Window.Width = 0 }, "window_size"},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }, "tick_interval"},
		{"empty monitor", func(c *Config) { c.Input.MonitorCommand = nil }, "monitor_command"},
		{"bad orientation", func(c *Config) { c.UI.Orientation = "diagonal" }, "orientation"},
		{"bad item", func(c *Config) { c.UI.Items = []UIItem{"clock"} }, "clock"},
		{"short hex", func(c *Config) { c.Colors.Text = "#fff" }, "text_color"},
		{"zero buffer", func(c *Config) { c.IPC.ReadBufferSize = 0 }, "read_buffer_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReload_KeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("log_level: [unclosed"), 0644))
	require.Error(t, m.Reload())
	assert.Equal(t, "info", m.Get().LogLevel)

	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0644))
	require.NoError(t, m.Reload())
	assert.Equal(t, "warn", m.Get().LogLevel)
}

func TestGet_ReturnsCopy(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	cfg := m.Get()
	cfg.LogLevel = "error"
	assert.Equal(t, "info", m.Get().LogLevel)
}

func TestSetValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{key: "log_level", value: "debug", want: "debug"},
		{key: "log_level", value: "loud", wantErr: true},
		{key: "self_name", value: "overlay", want: "overlay"},
		{key: "self_name", value: "", wantErr: true},
		{key: "tick_interval", value: "16ms", want: "16ms"},
		{key: "tick_interval", value: "fast", wantErr: true},
		{key: "ipc.read_buffer_size", value: "8192", want: "8192"},
		{key: "ipc.read_buffer_size", value: "big", wantErr: true},
		{key: "inspector.enabled", value: "true", want: "true"},
		{key: "inspector.enabled", value: "maybe", wantErr: true},
		{key: "colors", value: "red", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := Defaults()
			err := cfg.SetValue(tt.key, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			got, err := cfg.GetValue(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetValue_UnknownKey(t *testing.T) {
	_, err := Defaults().GetValue("server_port")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Contains(t, Keys(), "ipc.read_buffer_size")
}

func TestUpdate_PersistsAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Get()
	require.NoError(t, cfg.SetValue("self_name", "overlay"))
	require.NoError(t, m.Update(cfg))

	reopened, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, "overlay", reopened.Get().SelfName)

	bad := m.Get()
	require.NoError(t, bad.SetValue("ipc.read_buffer_size", "0"))
	assert.Error(t, m.Update(bad))
	assert.Equal(t, DefaultReadBufferSize, m.Get().IPC.ReadBufferSize)
}

func TestSocketPaths(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/var/cache/test")
	t.Setenv("WAYLAND_DISPLAY", "wayland-1")
	t.Setenv("DISPLAY", ":1")

	cfg := Defaults()
	notify, err := cfg.NotifySocketPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/test/qtile/qalttab.wayland-1", notify)

	qtile, err := cfg.QtileSocketPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/test/qtile/qtilesocket.wayland-1", qtile)

	t.Setenv("WAYLAND_DISPLAY", "")
	assert.Equal(t, ":1", DisplayID())

	t.Setenv("DISPLAY", "")
	assert.Equal(t, ":0", DisplayID())
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan *Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- m.Watch(ctx, func(cfg *Config) {
			select {
			case changed <- cfg:
			default:
			}
		})
	}()

	// Give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0644))

	select {
	case cfg := <-changed:
		assert.Equal(t, "debug", cfg.LogLevel)
	case <-time.After(3 * time.Second):
		t.Fatal("config change not observed")
	}

	cancel()
	assert.NoError(t, <-done)
}
