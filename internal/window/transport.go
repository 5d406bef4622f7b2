package window

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// ErrMalformedResponse is returned when a reply does not match the
// [status, payload] envelope
var ErrMalformedResponse = errors.New("malformed command response")

// Request is one call against the window manager's command graph
type Request struct {
	// Selectors is a flat path through the command graph, e.g. ["window", "42"]
	Selectors []string
	Method    string
	Args      []string
	Kwargs    map[string]any
	// Lifted asks the window manager to convert string args to the
	// command's declared parameter types
	Lifted bool
}

// Response is the decoded [status, payload] reply
type Response struct {
	OK      bool
	Payload json.RawMessage
}

// Transport carries requests to the window manager
type Transport interface {
	Call(ctx context.Context, req Request) (*Response, error)
}

// MarshalJSON encodes the request as qtile's IPC tuple
// [selectors, name, args, kwargs, lifted].
func (r Request) MarshalJSON() ([]byte, error) {
	selectors := make([][2]any, 0, (len(r.Selectors)+1)/2)
	for i := 0; i < len(r.Selectors); i += 2 {
		var value any
		if i+1 < len(r.Selectors) {
			value = selectorValue(r.Selectors[i+1])
		}
		selectors = append(selectors, [2]any{r.Selectors[i], value})
	}

	args := r.Args
	if args == nil {
		args = []string{}
	}
	kwargs := r.Kwargs
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	return json.Marshal([]any{selectors, r.Method, args, kwargs, r.Lifted})
}

// qtile indexes windows by integer wid
func selectorValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

// DecodeResponse parses a [status, payload] reply. status is a boolean or
// qtile's integer code where 0 means success.
func DecodeResponse(data []byte) (*Response, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(tuple) != 2 {
		return nil, fmt.Errorf("%w: expected 2 elements, got %d", ErrMalformedResponse, len(tuple))
	}

	resp := &Response{Payload: tuple[1]}

	var ok bool
	if err := json.Unmarshal(tuple[0], &ok); err == nil {
		resp.OK = ok
		return resp, nil
	}
	var code int
	if err := json.Unmarshal(tuple[0], &code); err == nil {
		resp.OK = code == 0
		return resp, nil
	}
	return nil, fmt.Errorf("%w: status %s", ErrMalformedResponse, string(tuple[0]))
}

// SocketTransport talks to qtile's command socket, one connection per call
type SocketTransport struct {
	socketPath string
	timeout    time.Duration
}

// NewSocketTransport creates a transport for the given qtile socket
func NewSocketTransport(socketPath string, timeout time.Duration) *SocketTransport {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &SocketTransport{
		socketPath: socketPath,
		timeout:    timeout,
	}
}

// Call sends the request, half-closes the connection and reads the whole reply
func (t *SocketTransport) Call(ctx context.Context, req Request) (*Response, error) {
	dialer := net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, "unix", t.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qtile: %w (is qtile running?)", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// qtile reads until EOF before answering
	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			return nil, fmt.Errorf("failed to close write side: %w", err)
		}
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return DecodeResponse(reply)
}
