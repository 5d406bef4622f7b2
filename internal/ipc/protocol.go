package ipc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bryanchriswhite/qalttab/internal/events"
	"github.com/bryanchriswhite/qalttab/internal/window"
)

// Message types qtile's hooks send
const (
	MessageClientFocus  = string(events.ClientFocus)
	MessageCycleWindows = string(events.CycleWindows)
)

var (
	// ErrMalformedMessage is returned when the payload is not the expected JSON object
	ErrMalformedMessage = errors.New("malformed notification")

	// ErrUnknownMessageType is returned for a message_type outside the protocol
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrMalformedWindow is returned when a window entry is not a flat string map
	ErrMalformedWindow = errors.New("malformed window entry")
)

// ackPayload is written back on every connection before the message is parsed
var ackPayload = []byte(`{"message":"success"}`)

// Message is one notification on the wire
type Message struct {
	MessageType string          `json:"message_type"`
	Windows     []window.Window `json:"windows"`
}

// Ack is the listener's reply
type Ack struct {
	Message string `json:"message"`
}

// wireMessage keeps windows raw so each entry can be checked on its own
type wireMessage struct {
	MessageType *string           `json:"message_type"`
	Windows     []json.RawMessage `json:"windows"`
}

// ParseMessage decodes a notification into the matching event. A single bad
// window entry rejects the whole message.
func ParseMessage(data []byte) (events.FocusEvent, error) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return events.FocusEvent{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.MessageType == nil {
		return events.FocusEvent{}, fmt.Errorf("%w: missing message_type", ErrMalformedMessage)
	}
	if msg.Windows == nil {
		return events.FocusEvent{}, fmt.Errorf("%w: missing windows", ErrMalformedMessage)
	}

	windows := make(window.List, 0, len(msg.Windows))
	for i, raw := range msg.Windows {
		var w window.Window
		if err := json.Unmarshal(raw, &w); err != nil || w == nil {
			return events.FocusEvent{}, fmt.Errorf("%w: entry %d: %s", ErrMalformedWindow, i, string(raw))
		}
		windows = append(windows, w)
	}

	switch *msg.MessageType {
	case MessageClientFocus:
		return events.NewClientFocus(windows), nil
	case MessageCycleWindows:
		return events.NewCycleWindows(windows), nil
	default:
		return events.FocusEvent{}, fmt.Errorf("%w: %q", ErrUnknownMessageType, *msg.MessageType)
	}
}
