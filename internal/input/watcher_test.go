package input

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bryanchriswhite/qalttab/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOutput = `-event3   DEVICE_ADDED            AT Translated Set 2 keyboard      seat0 default group1  cap:k
-event3   KEYBOARD_KEY            +1.100s	KEY_LEFTALT (56) pressed
 event3   KEYBOARD_KEY            +1.210s	KEY_TAB (15) pressed
 event3   KEYBOARD_KEY            +1.290s	KEY_TAB (15) released
 event3   KEYBOARD_KEY            +1.400s	KEY_LEFTALT (56) released
 event3   KEYBOARD_KEY            +2.000s	KEY_RIGHTALT (100) pressed
 event3   KEYBOARD_KEY            +2.300s	KEY_RIGHTALT (100) released
 event3   KEYBOARD_KEY            +3.000s	KEY_A (30) released
`

func TestIsAltRelease(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{" event3   KEYBOARD_KEY   +1.4s	KEY_LEFTALT (56) released", true},
		{" event3   KEYBOARD_KEY   +2.3s	KEY_RIGHTALT (100) released", true},
		{" event3   KEYBOARD_KEY   +1.1s	KEY_LEFTALT (56) pressed", false},
		{" event3   KEYBOARD_KEY   +3.0s	KEY_A (30) released", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAltRelease(tt.line), tt.line)
	}
}

func TestScan_EmitsOnlyAltReleases(t *testing.T) {
	q := events.NewQueue()
	var hooks atomic.Int32
	fired := make(chan struct{}, 4)
	w := NewWatcher(nil, func(context.Context) error {
		hooks.Add(1)
		fired <- struct{}{}
		return nil
	}, q)

	require.NoError(t, w.Scan(context.Background(), strings.NewReader(sampleOutput)))

	got := q.Drain()
	require.Len(t, got, 2)
	for _, ev := range got {
		assert.Equal(t, events.AltReleased, ev.Kind)
		assert.Empty(t, ev.Windows)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatal("hook was not fired")
		}
	}
	assert.Equal(t, int32(2), hooks.Load())
}

func TestScan_HookFailureIsIgnored(t *testing.T) {
	q := events.NewQueue()
	w := NewWatcher(nil, func(context.Context) error {
		return errors.New("qtile not running")
	}, q)

	require.NoError(t, w.Scan(context.Background(), strings.NewReader(sampleOutput)))
	assert.Equal(t, 2, q.Len())
}

func TestScan_ClosedQueueKeepsScanning(t *testing.T) {
	q := events.NewQueue()
	q.Close()
	var hooks atomic.Int32
	w := NewWatcher(nil, func(context.Context) error {
		hooks.Add(1)
		return nil
	}, q)

	require.NoError(t, w.Scan(context.Background(), strings.NewReader(sampleOutput)))
	assert.Eventually(t, func() bool { return hooks.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestRun_SpawnFailure(t *testing.T) {
	w := NewWatcher([]string{"/nonexistent/libinput", "debug-events"}, nil, events.NewQueue())

	err := w.Run(context.Background())
	var spawnErr *SpawnError
	require.True(t, errors.As(err, &spawnErr))
	assert.Equal(t, []string{"/nonexistent/libinput", "debug-events"}, spawnErr.Command)
}

func TestRun_EmptyCommand(t *testing.T) {
	w := NewWatcher(nil, nil, events.NewQueue())
	var spawnErr *SpawnError
	assert.True(t, errors.As(w.Run(context.Background()), &spawnErr))
}

func TestRun_MonitorExits(t *testing.T) {
	q := events.NewQueue()
	script := "printf '%s\\n' 'KEY_LEFTALT (56) pressed' 'KEY_LEFTALT (56) released'"
	w := NewWatcher([]string{"sh", "-c", script}, nil, q)

	err := w.Run(context.Background())
	assert.ErrorIs(t, err, ErrMonitorExited)
	assert.Equal(t, 1, q.Len())
}

func TestRun_StopsOnCancel(t *testing.T) {
	w := NewWatcher([]string{"sleep", "30"}, nil, events.NewQueue())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestCommandHook(t *testing.T) {
	assert.Nil(t, CommandHook(nil))

	hook := CommandHook([]string{"true"})
	require.NotNil(t, hook)
	assert.NoError(t, hook(context.Background()))

	assert.Error(t, CommandHook([]string{"false"})(context.Background()))
}
