package window

import "context"

// TableEntry is one record of the window manager's window table
type TableEntry struct {
	Name string `json:"name"`
	ID   string `json:"wid"`
}

// Controller is the fixed set of window manager operations the overlay needs.
// Operations addressing the overlay itself re-resolve its handle on every call
// and degrade to a logged no-op while the window does not exist yet.
type Controller interface {
	// ResolveSelf returns the handle of the overlay's own window, if realized
	ResolveSelf(ctx context.Context) (string, bool)

	// Windows returns the window manager's window table
	Windows(ctx context.Context) ([]TableEntry, error)

	// Focus switches to the target's group, focuses and raises it
	Focus(ctx context.Context, target Window) error

	// Hide hides the overlay window
	Hide(ctx context.Context)

	// Show unhides the overlay window
	Show(ctx context.Context)

	// Place resizes the overlay window and centers it
	Place(ctx context.Context, width, height int)

	// Close kills the target window
	Close(ctx context.Context, target Window) error

	// Name returns the backend name (e.g., "qtile")
	Name() string
}
