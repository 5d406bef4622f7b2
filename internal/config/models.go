package config

import (
	"fmt"
	"regexp"
	"time"
)

// Orientation of the window list in the overlay
type Orientation string

const (
	OrientationVertical   Orientation = "vertical"
	OrientationHorizontal Orientation = "horizontal"
)

// UIItem is one line rendered for every window entry
type UIItem string

const (
	UIItemIcon       UIItem = "icon"
	UIItemName       UIItem = "name"
	UIItemGroupName  UIItem = "group_name"
	UIItemGroupLabel UIItem = "group_label"
)

// Font is a single font file registered under a family
type Font struct {
	Name   string `json:"name" yaml:"name" toml:"name"`
	Family string `json:"family" yaml:"family" toml:"family"`
	Path   string `json:"path" yaml:"path" toml:"path"`
}

// FontSet is a font family and the files backing it
type FontSet struct {
	FamilyName string  `json:"family_name" yaml:"family_name" toml:"family_name"`
	Size       float64 `json:"size" yaml:"size" toml:"size"`
	Fonts      []Font  `json:"fonts" yaml:"fonts" toml:"fonts"`
}

// FontsConfig holds the text and icon fonts
type FontsConfig struct {
	Text FontSet `json:"text_font" yaml:"text_font" toml:"text_font"`
	Icon FontSet `json:"icon_font" yaml:"icon_font" toml:"icon_font"`
}

// ColorsConfig holds the overlay colors as #rrggbb or #rrggbbaa strings
type ColorsConfig struct {
	Background  string `json:"bg_color" yaml:"bg_color" toml:"bg_color"`
	Text        string `json:"text_color" yaml:"text_color" toml:"text_color"`
	NormalGroup string `json:"normal_group_color" yaml:"normal_group_color" toml:"normal_group_color"`
	HoverGroup  string `json:"group_hover_color" yaml:"group_hover_color" toml:"group_hover_color"`
}

// IconsConfig controls icon theme lookup
type IconsConfig struct {
	Themes      []string `json:"themes" yaml:"themes" toml:"themes"`
	LookupSize  int      `json:"lookup_icon_size" yaml:"lookup_icon_size" toml:"lookup_icon_size"`
	VisibleSize float64  `json:"visible_icon_size" yaml:"visible_icon_size" toml:"visible_icon_size"`
	DefaultIcon string   `json:"default_icon" yaml:"default_icon" toml:"default_icon"`
}

// WindowSize is the overlay's width and maximum height in pixels
type WindowSize struct {
	Width  float64 `json:"width" yaml:"width" toml:"width"`
	Height float64 `json:"height" yaml:"height" toml:"height"`
}

// SizesConfig holds layout constants
type SizesConfig struct {
	Window           WindowSize `json:"window_size" yaml:"window_size" toml:"window_size"`
	GroupSpacing     float64    `json:"group_spacing" yaml:"group_spacing" toml:"group_spacing"`
	GroupStrokeWidth float64    `json:"group_rect_stroke_width" yaml:"group_rect_stroke_width" toml:"group_rect_stroke_width"`
	WindowMargin     float64    `json:"window_margin" yaml:"window_margin" toml:"window_margin"`
}

// UIConfig describes what is rendered per window entry
type UIConfig struct {
	Orientation Orientation `json:"orientation" yaml:"orientation" toml:"orientation"`
	Items       []UIItem    `json:"items" yaml:"items" toml:"items"`
}

// IPCConfig configures both qtile sockets. Empty paths are derived from the
// cache directory and the display session.
type IPCConfig struct {
	NotifySocket   string        `json:"notify_socket" yaml:"notify_socket" toml:"notify_socket"`
	QtileSocket    string        `json:"qtile_socket" yaml:"qtile_socket" toml:"qtile_socket"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
	ReadBufferSize int           `json:"read_buffer_size" yaml:"read_buffer_size" toml:"read_buffer_size"`
}

// InputConfig configures the alt key release watcher
type InputConfig struct {
	MonitorCommand []string `json:"monitor_command" yaml:"monitor_command" toml:"monitor_command"`
	HookCommand    []string `json:"hook_command" yaml:"hook_command" toml:"hook_command"`
}

// InspectorConfig configures the read-only state API
type InspectorConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Address string `json:"address" yaml:"address" toml:"address"`
}

// AlertsConfig configures desktop notifications for fatal failures
type AlertsConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// Config represents the application configuration
type Config struct {
	LogLevel     string        `json:"log_level" yaml:"log_level" toml:"log_level"`
	SelfName     string        `json:"self_name" yaml:"self_name" toml:"self_name"`
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval" toml:"tick_interval"`

	IPC       IPCConfig       `json:"ipc" yaml:"ipc" toml:"ipc"`
	Input     InputConfig     `json:"input" yaml:"input" toml:"input"`
	Colors    ColorsConfig    `json:"colors" yaml:"colors" toml:"colors"`
	Fonts     FontsConfig     `json:"fonts" yaml:"fonts" toml:"fonts"`
	Icons     IconsConfig     `json:"icons" yaml:"icons" toml:"icons"`
	Sizes     SizesConfig     `json:"sizes" yaml:"sizes" toml:"sizes"`
	UI        UIConfig        `json:"ui" yaml:"ui" toml:"ui"`
	Inspector InspectorConfig `json:"inspector" yaml:"inspector" toml:"inspector"`
	Alerts    AlertsConfig    `json:"alerts" yaml:"alerts" toml:"alerts"`
}

// AppName is the process name and the window name qtile reports for the overlay
const AppName = "qalttab"

// DefaultReadBufferSize bounds a single notification message
const DefaultReadBufferSize = 4096

// Defaults returns the default configuration
func Defaults() *Config {
	return &Config{
		LogLevel:     "info",
		SelfName:     AppName,
		TickInterval: 50 * time.Millisecond,
		IPC: IPCConfig{
			Timeout:        2 * time.Second,
			ReadBufferSize: DefaultReadBufferSize,
		},
		Input: InputConfig{
			MonitorCommand: []string{"libinput", "debug-events", "--show-keycodes"},
			HookCommand:    []string{"qtile", "cmd-obj", "-o", "cmd", "-f", "fire_user_hook", "-a", "alt_release"},
		},
		Colors: ColorsConfig{
			Background:  "#1e1e2e",
			Text:        "#cdd6f4",
			NormalGroup: "#45475a",
			HoverGroup:  "#f38ba8",
		},
		Fonts: FontsConfig{
			Text: FontSet{
				FamilyName: "Caskaydia Cove",
				Size:       14,
				Fonts: []Font{{
					Name:   "Caskaydia Cove Regular",
					Family: "Caskaydia Cove",
					Path:   "/usr/share/fonts/OTF/Caskaydia Cove Nerd Font Complete Regular.otf",
				}},
			},
			Icon: FontSet{
				FamilyName: "Font Awesome",
				Size:       18,
				Fonts: []Font{
					{Name: "fa-brands", Family: "Font Awesome", Path: "/usr/share/fonts/TTF/fa-brands-400.ttf"},
					{Name: "fa-regular", Family: "Font Awesome", Path: "/usr/share/fonts/TTF/fa-regular-400.ttf"},
					{Name: "Font Awesome Solid", Family: "Font Awesome", Path: "/usr/share/fonts/TTF/fa-solid-900.ttf"},
				},
			},
		},
		Icons: IconsConfig{
			Themes:      []string{"Papirus", "Papirus-Dark", "Papirus-Light"},
			LookupSize:  128,
			VisibleSize: 64,
			DefaultIcon: "/usr/share/icons/hicolor/scalable/apps/default-application.svg",
		},
		Sizes: SizesConfig{
			Window:           WindowSize{Width: 400, Height: 900},
			GroupSpacing:     8,
			GroupStrokeWidth: 2,
			WindowMargin:     6,
		},
		UI: UIConfig{
			Orientation: OrientationVertical,
			Items:       []UIItem{UIItemIcon, UIItemName, UIItemGroupLabel},
		},
		Inspector: InspectorConfig{
			Enabled: false,
			Address: "127.0.0.1:7878",
		},
	}
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Validate checks the values the core depends on
func (c *Config) Validate() error {
	colors := []struct{ key, value string }{
		{"colors.bg_color", c.Colors.Background},
		{"colors.text_color", c.Colors.Text},
		{"colors.normal_group_color", c.Colors.NormalGroup},
		{"colors.group_hover_color", c.Colors.HoverGroup},
	}
	for _, color := range colors {
		if !hexColor.MatchString(color.value) {
			return fmt.Errorf("%s: invalid hex color %q", color.key, color.value)
		}
	}

	if c.Sizes.Window.Width <= 0 || c.Sizes.Window.Height <= 0 {
		return fmt.Errorf("sizes.window_size must be positive, got %vx%v", c.Sizes.Window.Width, c.Sizes.Window.Height)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if len(c.Input.MonitorCommand) == 0 {
		return fmt.Errorf("input.monitor_command must not be empty")
	}
	if c.IPC.ReadBufferSize <= 0 {
		return fmt.Errorf("ipc.read_buffer_size must be positive, got %d", c.IPC.ReadBufferSize)
	}

	switch c.UI.Orientation {
	case OrientationVertical, OrientationHorizontal:
	default:
		return fmt.Errorf("ui.orientation: unknown value %q", c.UI.Orientation)
	}
	for _, item := range c.UI.Items {
		switch item {
		case UIItemIcon, UIItemName, UIItemGroupName, UIItemGroupLabel:
		default:
			return fmt.Errorf("ui.items: unknown item %q", item)
		}
	}

	return nil
}

// fillDefaults replaces zero values a partial config file left behind
func (c *Config) fillDefaults() {
	d := Defaults()
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.SelfName == "" {
		c.SelfName = d.SelfName
	}
	if c.TickInterval == 0 {
		c.TickInterval = d.TickInterval
	}
	if c.IPC.Timeout == 0 {
		c.IPC.Timeout = d.IPC.Timeout
	}
	if c.IPC.ReadBufferSize == 0 {
		c.IPC.ReadBufferSize = d.IPC.ReadBufferSize
	}
	if c.Input.MonitorCommand == nil {
		c.Input.MonitorCommand = d.Input.MonitorCommand
	}
	if c.Input.HookCommand == nil {
		c.Input.HookCommand = d.Input.HookCommand
	}
	if c.Colors == (ColorsConfig{}) {
		c.Colors = d.Colors
	}
	if c.Fonts.Text.FamilyName == "" {
		c.Fonts.Text = d.Fonts.Text
	}
	if c.Fonts.Icon.FamilyName == "" {
		c.Fonts.Icon = d.Fonts.Icon
	}
	if c.Icons.Themes == nil {
		c.Icons = d.Icons
	}
	if c.Sizes.Window == (WindowSize{}) {
		c.Sizes = d.Sizes
	}
	if c.UI.Orientation == "" {
		c.UI.Orientation = d.UI.Orientation
	}
	if c.UI.Items == nil {
		c.UI.Items = d.UI.Items
	}
	if c.Inspector.Address == "" {
		c.Inspector.Address = d.Inspector.Address
	}
}
