package window

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bryanchriswhite/qalttab/internal/logger"
	"github.com/rs/zerolog"
)

// windowTableExpr serializes qtile's windows_map as [{"name": ..., "wid": ...}]
const windowTableExpr = `__import__("json").dumps([` +
	`{"name": w.name, "wid": str(w.wid)} ` +
	`for w in self.windows_map.values() ` +
	`if hasattr(w, "name") and hasattr(w, "wid")])`

// QtileBackend implements Controller on top of qtile's command graph
type QtileBackend struct {
	transport Transport
	selfName  string
	log       *zerolog.Logger
}

// NewQtileBackend creates a backend. selfName is the window name qtile reports
// for the overlay.
func NewQtileBackend(transport Transport, selfName string) *QtileBackend {
	return &QtileBackend{
		transport: transport,
		selfName:  selfName,
		log:       logger.WithComponent(logger.ComponentQtile),
	}
}

// Name returns the backend name
func (b *QtileBackend) Name() string {
	return "qtile"
}

// call issues one request and fails on transport errors and error statuses
func (b *QtileBackend) call(ctx context.Context, req Request) (json.RawMessage, error) {
	resp, err := b.transport.Call(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("qtile %s failed: %s", req.Method, string(resp.Payload))
	}
	return resp.Payload, nil
}

// eval runs an expression in qtile's scope and returns its string result.
// qtile answers eval with an [ok, text] pair.
func (b *QtileBackend) eval(ctx context.Context, expr string) (string, error) {
	payload, err := b.call(ctx, Request{Method: "eval", Args: []string{expr}})
	if err != nil {
		return "", err
	}

	var result []json.RawMessage
	if err := json.Unmarshal(payload, &result); err != nil || len(result) != 2 {
		return "", fmt.Errorf("%w: eval payload %s", ErrMalformedResponse, string(payload))
	}
	var ok bool
	if err := json.Unmarshal(result[0], &ok); err != nil {
		return "", fmt.Errorf("%w: eval status %s", ErrMalformedResponse, string(result[0]))
	}
	var text *string
	if err := json.Unmarshal(result[1], &text); err != nil {
		return "", fmt.Errorf("%w: eval result %s", ErrMalformedResponse, string(result[1]))
	}
	if !ok {
		msg := "<none>"
		if text != nil {
			msg = *text
		}
		return "", fmt.Errorf("eval raised: %s", msg)
	}
	if text == nil {
		return "", nil
	}
	return *text, nil
}

// Windows returns qtile's window table
func (b *QtileBackend) Windows(ctx context.Context) ([]TableEntry, error) {
	text, err := b.eval(ctx, windowTableExpr)
	if err != nil {
		return nil, fmt.Errorf("failed to query window table: %w", err)
	}
	var entries []TableEntry
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		return nil, fmt.Errorf("%w: window table: %v", ErrMalformedResponse, err)
	}
	return entries, nil
}

// ResolveSelf looks up the overlay's own window. Absence is normal while the
// window is being realized and is only logged at debug level.
func (b *QtileBackend) ResolveSelf(ctx context.Context) (string, bool) {
	entries, err := b.Windows(ctx)
	if err != nil {
		b.log.Warn().Err(err).Msg("Failed to resolve own window")
		return "", false
	}
	for _, entry := range entries {
		if entry.Name == b.selfName {
			return entry.ID, true
		}
	}
	b.log.Debug().Str("name", b.selfName).Msg("Window is not yet ready")
	return "", false
}

// Focus runs three ordered steps, each depending on state the previous one
// changed inside qtile: switch the screen to the target's group, focus the
// target without warping the pointer, raise it. A failed step is logged and
// the remaining steps still run.
func (b *QtileBackend) Focus(ctx context.Context, target Window) error {
	id, err := target.RequireID()
	if err != nil {
		return fmt.Errorf("focus: %w", err)
	}
	log := b.log.With().Str("wid", id).Str("class", target.Class()).Logger()

	// The id ends up inside an expression, so only integer wids are accepted
	if wid, err := strconv.ParseUint(id, 10, 64); err == nil {
		expr := fmt.Sprintf("self.current_screen.set_group(self.windows_map[%d].group)", wid)
		if _, err := b.eval(ctx, expr); err != nil {
			log.Warn().Err(err).Msg("Failed to switch to window group")
		}
	} else {
		log.Warn().Msg("Non-numeric window id, skipping group switch")
	}

	if _, err := b.call(ctx, Request{
		Selectors: []string{"window", id},
		Method:    "focus",
		Kwargs:    map[string]any{"warp": false},
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to focus window")
	}

	if _, err := b.call(ctx, Request{
		Selectors: []string{"window", id},
		Method:    "bring_to_front",
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to raise window")
	}

	return nil
}

// Hide hides the overlay window
func (b *QtileBackend) Hide(ctx context.Context) {
	b.selfCommand(ctx, "hide")
}

// Show unhides the overlay window
func (b *QtileBackend) Show(ctx context.Context) {
	b.selfCommand(ctx, "unhide")
}

func (b *QtileBackend) selfCommand(ctx context.Context, method string) {
	wid, ok := b.ResolveSelf(ctx)
	if !ok {
		b.log.Debug().Str("method", method).Msg("Own window not resolved, skipping")
		return
	}
	if _, err := b.call(ctx, Request{Selectors: []string{"window", wid}, Method: method}); err != nil {
		b.log.Warn().Err(err).Str("wid", wid).Str("method", method).Msg("Window command failed")
	}
}

// Place sets the overlay's floating size and centers it. Both steps use the
// handle resolved at the start of this call.
func (b *QtileBackend) Place(ctx context.Context, width, height int) {
	wid, ok := b.ResolveSelf(ctx)
	if !ok {
		b.log.Debug().Msg("Could not place own window")
		return
	}
	log := b.log.With().Str("wid", wid).Logger()

	if _, err := b.call(ctx, Request{
		Selectors: []string{"window", wid},
		Method:    "set_size_floating",
		Args:      []string{strconv.Itoa(width), strconv.Itoa(height)},
		Lifted:    true,
	}); err != nil {
		log.Warn().Err(err).Int("width", width).Int("height", height).Msg("Failed to resize window")
	}

	if _, err := b.call(ctx, Request{
		Selectors: []string{"window", wid},
		Method:    "center",
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to center window")
	}
}

// Close kills the target window. It addresses the caller's descriptor, never
// the overlay itself.
func (b *QtileBackend) Close(ctx context.Context, target Window) error {
	id, err := target.RequireID()
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if _, err := b.call(ctx, Request{Selectors: []string{"window", id}, Method: "kill"}); err != nil {
		b.log.Warn().Err(err).Str("wid", id).Str("class", target.Class()).Msg("Failed to kill window")
	}
	return nil
}
