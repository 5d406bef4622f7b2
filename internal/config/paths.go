package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// CacheDir returns $XDG_CACHE_HOME or ~/.cache
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	return filepath.Join(home, ".cache"), nil
}

// DisplayID returns the display session identifier qtile uses to name its
// sockets.
func DisplayID() string {
	if d := os.Getenv("WAYLAND_DISPLAY"); d != "" {
		return d
	}
	if d := os.Getenv("DISPLAY"); d != "" {
		return d
	}
	return ":0"
}

func qtileCachePath(name string) (string, error) {
	cache, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "qtile", name+"."+DisplayID()), nil
}

// NotifySocketPath is where the listener binds, e.g. ~/.cache/qtile/qalttab.wayland-1
func (c *Config) NotifySocketPath() (string, error) {
	if c.IPC.NotifySocket != "" {
		return c.IPC.NotifySocket, nil
	}
	return qtileCachePath("qalttab")
}

// QtileSocketPath is qtile's own command socket, e.g. ~/.cache/qtile/qtilesocket.wayland-1
func (c *Config) QtileSocketPath() (string, error) {
	if c.IPC.QtileSocket != "" {
		return c.IPC.QtileSocket, nil
	}
	return qtileCachePath("qtilesocket")
}
