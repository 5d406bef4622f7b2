// Package input watches the raw input event stream for alt key releases.
package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/bryanchriswhite/qalttab/internal/events"
	"github.com/bryanchriswhite/qalttab/internal/logger"
	"github.com/rs/zerolog"
)

const hookTimeout = 5 * time.Second

// ErrMonitorExited is returned when the monitor's output ends on its own
var ErrMonitorExited = errors.New("input monitor exited")

// SpawnError reports that the monitor process could not be started
type SpawnError struct {
	Command []string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start input monitor %q: %v", strings.Join(e.Command, " "), e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Pusher accepts events
type Pusher interface {
	Push(ev events.FocusEvent) error
}

// HookFunc notifies the window manager of a release
type HookFunc func(ctx context.Context) error

// CommandHook runs args as a one-shot command with its output discarded
func CommandHook(args []string) HookFunc {
	if len(args) == 0 {
		return nil
	}
	return func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		return cmd.Run()
	}
}

// IsAltRelease reports whether a monitor line is a left or right alt release
func IsAltRelease(line string) bool {
	return (strings.Contains(line, "KEY_LEFTALT") || strings.Contains(line, "KEY_RIGHTALT")) &&
		strings.Contains(line, "released")
}

// Watcher runs the input monitor and emits AltReleased events
type Watcher struct {
	monitor []string
	hook    HookFunc
	queue   Pusher
	log     *zerolog.Logger
}

// NewWatcher creates a watcher. monitor is the command streaming input events,
// hook may be nil.
func NewWatcher(monitor []string, hook HookFunc, queue Pusher) *Watcher {
	return &Watcher{
		monitor: monitor,
		hook:    hook,
		queue:   queue,
		log:     logger.WithComponent(logger.ComponentWatcher),
	}
}

// Run spawns the monitor and scans its output until it ends or ctx is
// cancelled. Only a spawn failure is reported as *SpawnError.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.monitor) == 0 {
		return &SpawnError{Err: errors.New("empty command")}
	}

	cmd := exec.CommandContext(ctx, w.monitor[0], w.monitor[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &SpawnError{Command: w.monitor, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &SpawnError{Command: w.monitor, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return &SpawnError{Command: w.monitor, Err: err}
	}

	w.log.Info().
		Int("pid", cmd.Process.Pid).
		Str("command", strings.Join(w.monitor, " ")).
		Msg("Input monitor started")

	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		w.logStderr(stderr)
	}()

	scanErr := w.Scan(ctx, stdout)
	if scanErr != nil {
		// Nobody reads stdout anymore
		cmd.Process.Kill()
	}
	<-stderrDone
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		w.log.Debug().Msg("Input monitor stopped")
		return nil
	}
	if scanErr != nil {
		return fmt.Errorf("%w: %v", ErrMonitorExited, scanErr)
	}
	if waitErr != nil {
		return fmt.Errorf("%w: %v", ErrMonitorExited, waitErr)
	}
	return ErrMonitorExited
}

// Scan reads monitor lines from r until EOF or cancellation
func (w *Watcher) Scan(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if !IsAltRelease(scanner.Text()) {
			continue
		}

		w.log.Debug().Msg("Alt released")
		if err := w.queue.Push(events.NewAltReleased()); err != nil {
			w.log.Warn().Err(err).Msg("Failed to queue alt release")
		}
		w.fireHook(ctx)
	}
	return scanner.Err()
}

// fireHook runs the hook detached from the scan loop
func (w *Watcher) fireHook(ctx context.Context) {
	if w.hook == nil {
		return
	}
	go func() {
		hookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hookTimeout)
		defer cancel()
		if err := w.hook(hookCtx); err != nil {
			w.log.Debug().Err(err).Msg("Alt release hook failed")
		}
	}()
}

func (w *Watcher) logStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		w.log.Debug().Str("stderr", scanner.Text()).Msg("Input monitor output")
	}
}
