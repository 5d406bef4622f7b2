// Package ipc receives focus notifications from qtile's hooks over a unix
// socket and turns them into events for the aggregator.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bryanchriswhite/qalttab/internal/events"
	"github.com/bryanchriswhite/qalttab/internal/logger"
	"github.com/rs/zerolog"
)

const (
	defaultBufferSize = 4096
	defaultTimeout    = 2 * time.Second
	liveCheckTimeout  = 250 * time.Millisecond
)

// ErrAlreadyRunning is returned when another instance answers on the socket
var ErrAlreadyRunning = errors.New("another instance is already listening")

// BindError reports a failure to create the notification socket
type BindError struct {
	Path string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind notification socket %s: %v", e.Path, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// Pusher accepts decoded events
type Pusher interface {
	Push(ev events.FocusEvent) error
}

// Listener serves the notification socket. Each connection carries exactly
// one message and is handled on its own goroutine.
type Listener struct {
	socketPath string
	queue      Pusher
	bufferSize int
	timeout    time.Duration

	listener net.Listener
	wg       sync.WaitGroup

	stopOnce sync.Once
	stopped  chan struct{}

	log *zerolog.Logger
}

// NewListener creates a listener for socketPath. Non-positive bufferSize and
// timeout fall back to 4096 bytes and 2s.
func NewListener(socketPath string, queue Pusher, bufferSize int, timeout time.Duration) *Listener {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Listener{
		socketPath: socketPath,
		queue:      queue,
		bufferSize: bufferSize,
		timeout:    timeout,
		stopped:    make(chan struct{}),
		log:        logger.WithComponent(logger.ComponentListener),
	}
}

// SocketPath returns the path the listener binds
func (l *Listener) SocketPath() string {
	return l.socketPath
}

// Listen binds the socket. A stale socket file is removed first; a live one
// means another instance owns it and ErrAlreadyRunning is returned.
func (l *Listener) Listen() error {
	if err := os.MkdirAll(filepath.Dir(l.socketPath), 0700); err != nil {
		return &BindError{Path: l.socketPath, Err: err}
	}

	if _, err := os.Stat(l.socketPath); err == nil {
		if conn, err := net.DialTimeout("unix", l.socketPath, liveCheckTimeout); err == nil {
			conn.Close()
			return fmt.Errorf("%w: %s", ErrAlreadyRunning, l.socketPath)
		}
		l.log.Debug().Str("path", l.socketPath).Msg("Removing stale socket")
		if err := os.Remove(l.socketPath); err != nil && !os.IsNotExist(err) {
			return &BindError{Path: l.socketPath, Err: err}
		}
	}

	ln, err := net.Listen("unix", l.socketPath)
	if err != nil {
		return &BindError{Path: l.socketPath, Err: err}
	}
	if err := os.Chmod(l.socketPath, 0600); err != nil {
		ln.Close()
		return &BindError{Path: l.socketPath, Err: err}
	}

	l.listener = ln
	l.log.Info().Str("path", l.socketPath).Msg("Listening for notifications")
	return nil
}

// Serve accepts connections until ctx is cancelled or Stop is called. It
// waits for in-flight connections before returning.
func (l *Listener) Serve(ctx context.Context) error {
	if l.listener == nil {
		return errors.New("listener is not bound")
	}

	go func() {
		select {
		case <-ctx.Done():
			l.Stop()
		case <-l.stopped:
		}
	}()

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			select {
			case <-l.stopped:
				l.wg.Wait()
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			l.log.Warn().Err(err).Msg("Accept failed")
			continue
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.handleConnection(conn)
		}()
	}
}

// Stop closes the socket and removes the socket file
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopped)
		// Never unlink a socket this listener did not bind
		if l.listener == nil {
			return
		}
		l.listener.Close()
		if err := os.Remove(l.socketPath); err != nil && !os.IsNotExist(err) {
			l.log.Warn().Err(err).Str("path", l.socketPath).Msg("Could not remove socket file")
		}
	})
}

func (l *Listener) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(l.timeout))

	data, err := l.readMessage(conn)
	if err != nil {
		l.log.Warn().Err(err).Int("bytes", len(data)).Msg("Read failed")
	}

	// The sender blocks on this reply
	if _, err := conn.Write(ackPayload); err != nil {
		l.log.Debug().Err(err).Msg("Failed to write ack")
	}

	if len(data) == l.bufferSize {
		// Consume the rest so closing does not reset the sender's read
		io.Copy(io.Discard, conn)
		if !json.Valid(data) {
			l.log.Warn().Int("limit", l.bufferSize).Msg("Dropping oversized notification")
			return
		}
	}

	if len(data) == 0 {
		l.log.Debug().Msg("Empty notification")
		return
	}

	ev, err := ParseMessage(data)
	if err != nil {
		l.log.Warn().Err(err).Int("bytes", len(data)).Msg("Dropping notification")
		return
	}

	l.log.Debug().
		Str("type", string(ev.Kind)).
		Int("windows", len(ev.Windows)).
		Msg("Received notification")

	if err := l.queue.Push(ev); err != nil {
		l.log.Error().Err(err).Str("type", string(ev.Kind)).Msg("Failed to queue event")
	}
}

// readMessage fills the buffer until it holds a complete JSON value, the
// buffer is full or the peer stops sending.
func (l *Listener) readMessage(conn net.Conn) ([]byte, error) {
	buf := make([]byte, l.bufferSize)
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if json.Valid(buf[:n]) {
			break
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return buf[:n], err
		}
	}
	return buf[:n], nil
}
