// Package events defines the focus events both producers emit and the queue
// that carries them to the aggregator.
package events

import (
	"github.com/bryanchriswhite/qalttab/internal/window"
)

// Kind tags a FocusEvent variant
type Kind string

const (
	// ClientFocus: the focused window (and its siblings) changed outside alt-tab cycling
	ClientFocus Kind = "client_focus"
	// CycleWindows: qtile produced a new alt-tab ordering
	CycleWindows Kind = "cycle_windows"
	// AltReleased: the alt modifier was released, no payload
	AltReleased Kind = "alt_released"
)

// FocusEvent is one notification from either producer
type FocusEvent struct {
	Kind    Kind
	Windows window.List
}

// NewClientFocus builds a ClientFocus event
func NewClientFocus(windows window.List) FocusEvent {
	return FocusEvent{Kind: ClientFocus, Windows: windows}
}

// NewCycleWindows builds a CycleWindows event
func NewCycleWindows(windows window.List) FocusEvent {
	return FocusEvent{Kind: CycleWindows, Windows: windows}
}

// NewAltReleased builds an AltReleased event
func NewAltReleased() FocusEvent {
	return FocusEvent{Kind: AltReleased}
}
