// Package shortcut creates the desktop entry for the managed application.
// Only Windows gets a real implementation, other platforms no-op so the
// install procedure reads the same everywhere.
package shortcut

import "context"

// Creator places a desktop shortcut for the managed app. Implementations
// must be safe to call repeatedly, an existing shortcut is overwritten.
type Creator interface {
	Create(ctx context.Context) error
}
