package window

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Descriptor keys sent by qtile
const (
	KeyID         = "id"
	KeyClass      = "class"
	KeyName       = "name"
	KeyGroupName  = "group_name"
	KeyGroupLabel = "group_label"
)

// ErrMissingField is returned when a descriptor lacks a key an operation needs
var ErrMissingField = errors.New("window descriptor missing field")

// Window is a flat descriptor of one managed window as qtile reports it.
// Only id is required, and only by the operations that address the window.
type Window map[string]string

// ID returns the opaque qtile window id, or "" when absent
func (w Window) ID() string { return w[KeyID] }

// Class returns the WM_CLASS reported by qtile
func (w Window) Class() string { return w[KeyClass] }

// Name returns the window title
func (w Window) Name() string { return w[KeyName] }

// GroupName returns the name of the group holding the window
func (w Window) GroupName() string { return w[KeyGroupName] }

// GroupLabel returns the label of the group holding the window
func (w Window) GroupLabel() string { return w[KeyGroupLabel] }

// RequireID returns the id or an ErrMissingField naming it
func (w Window) RequireID() (string, error) {
	id, ok := w[KeyID]
	if !ok || id == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingField, KeyID)
	}
	return id, nil
}

// List is an ordered window list; order is significant, e.g. alt-tab order
type List []Window

// Equal reports whether both lists hold the same descriptors in the same order
func (l List) Equal(other List) bool {
	return slices.EqualFunc(l, other, func(a, b Window) bool {
		return maps.Equal(a, b)
	})
}
