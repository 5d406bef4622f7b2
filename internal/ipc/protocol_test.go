package ipc

import (
	"testing"

	"github.com/bryanchriswhite/qalttab/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantKind events.Kind
		wantLen  int
		wantErr  error
	}{
		{name: "cycle windows", in: scenarioPayload, wantKind: events.CycleWindows, wantLen: 1},
		{name: "client focus empty list", in: `{"message_type":"client_focus","windows":[]}`, wantKind: events.ClientFocus},
		{name: "extra keys ignored", in: `{"message_type":"client_focus","windows":[],"v":2}`, wantKind: events.ClientFocus},
		{name: "unknown type", in: `{"message_type":"bogus","windows":[]}`, wantErr: ErrUnknownMessageType},
		{name: "missing type", in: `{"windows":[]}`, wantErr: ErrMalformedMessage},
		{name: "missing windows", in: `{"message_type":"client_focus"}`, wantErr: ErrMalformedMessage},
		{name: "windows not a list", in: `{"message_type":"client_focus","windows":{}}`, wantErr: ErrMalformedMessage},
		{name: "type not a string", in: `{"message_type":1,"windows":[]}`, wantErr: ErrMalformedMessage},
		{name: "numeric value", in: `{"message_type":"client_focus","windows":[{"id":1}]}`, wantErr: ErrMalformedWindow},
		{name: "null entry", in: `{"message_type":"client_focus","windows":[null]}`, wantErr: ErrMalformedWindow},
		{name: "string entry", in: `{"message_type":"client_focus","windows":["1"]}`, wantErr: ErrMalformedWindow},
		{name: "truncated", in: `{"message_type":"client_focus","windows":[{"id":"1"`, wantErr: ErrMalformedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseMessage([]byte(tt.in))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, ev.Kind)
			assert.Len(t, ev.Windows, tt.wantLen)
		})
	}
}

func TestParseMessage_NamesFirstBadEntry(t *testing.T) {
	_, err := ParseMessage([]byte(`{"message_type":"cycle_windows","windows":[{"id":"1"},{"id":2},{"id":3}]}`))
	require.ErrorIs(t, err, ErrMalformedWindow)
	assert.Contains(t, err.Error(), "entry 1")
}
