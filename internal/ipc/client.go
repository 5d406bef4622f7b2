package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"
)

// Send delivers one notification and returns the listener's ack
func Send(ctx context.Context, socketPath string, msg Message, timeout time.Duration) (*Ack, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}

	reply, err := SendRaw(ctx, socketPath, data, timeout)
	if err != nil {
		return nil, err
	}

	var ack Ack
	if err := json.Unmarshal(reply, &ack); err != nil {
		return nil, fmt.Errorf("failed to parse ack %q: %w", string(reply), err)
	}
	return &ack, nil
}

// SendRaw writes data as-is and returns whatever the listener replies
func SendRaw(ctx context.Context, socketPath string, data []byte, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to listener: %w (is qalttab running?)", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("failed to send notification: %w", err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		uc.CloseWrite()
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read ack: %w", err)
	}
	return reply, nil
}
