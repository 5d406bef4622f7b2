package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnknownKey is returned for keys config get/set do not handle
var ErrUnknownKey = errors.New("unknown configuration key")

// Keys lists the scalar keys accepted by GetValue and SetValue
func Keys() []string {
	keys := make([]string, 0, len(scalarKeys))
	for k := range scalarKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type scalarKey struct {
	get func(c *Config) string
	set func(c *Config, value string) error
}

var scalarKeys = map[string]scalarKey{
	"log_level": {
		get: func(c *Config) string { return c.LogLevel },
		set: func(c *Config, v string) error {
			if _, err := zerolog.ParseLevel(v); err != nil || v == "" {
				return fmt.Errorf("invalid log level: %s (use: trace, debug, info, warn, error)", v)
			}
			c.LogLevel = v
			return nil
		},
	},
	"self_name": {
		get: func(c *Config) string { return c.SelfName },
		set: func(c *Config, v string) error {
			if v == "" {
				return fmt.Errorf("self_name must not be empty")
			}
			c.SelfName = v
			return nil
		},
	},
	"tick_interval": {
		get: func(c *Config) string { return c.TickInterval.String() },
		set: func(c *Config, v string) error { return setDuration(&c.TickInterval, v) },
	},
	"ipc.timeout": {
		get: func(c *Config) string { return c.IPC.Timeout.String() },
		set: func(c *Config, v string) error { return setDuration(&c.IPC.Timeout, v) },
	},
	"ipc.read_buffer_size": {
		get: func(c *Config) string { return strconv.Itoa(c.IPC.ReadBufferSize) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid number: %s", v)
			}
			c.IPC.ReadBufferSize = n
			return nil
		},
	},
	"ipc.notify_socket": {
		get: func(c *Config) string { return c.IPC.NotifySocket },
		set: func(c *Config, v string) error { c.IPC.NotifySocket = v; return nil },
	},
	"ipc.qtile_socket": {
		get: func(c *Config) string { return c.IPC.QtileSocket },
		set: func(c *Config, v string) error { c.IPC.QtileSocket = v; return nil },
	},
	"ui.orientation": {
		get: func(c *Config) string { return string(c.UI.Orientation) },
		set: func(c *Config, v string) error { c.UI.Orientation = Orientation(v); return nil },
	},
	"inspector.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Inspector.Enabled) },
		set: func(c *Config, v string) error { return setBool(&c.Inspector.Enabled, v) },
	},
	"inspector.address": {
		get: func(c *Config) string { return c.Inspector.Address },
		set: func(c *Config, v string) error { c.Inspector.Address = v; return nil },
	},
	"alerts.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Alerts.Enabled) },
		set: func(c *Config, v string) error { return setBool(&c.Alerts.Enabled, v) },
	},
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration: %s (e.g. 50ms, 2s)", v)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid boolean: %s (use: true or false)", v)
	}
	*dst = b
	return nil
}

// GetValue returns the string form of a scalar key
func (c *Config) GetValue(key string) (string, error) {
	k, ok := scalarKeys[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return k.get(c), nil
}

// SetValue parses value into a scalar key. The result is not validated as a
// whole; Manager.Update does that.
func (c *Config) SetValue(key, value string) error {
	k, ok := scalarKeys[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return k.set(c, value)
}
