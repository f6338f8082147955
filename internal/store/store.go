package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store gives transactional access to the document.
type Store interface {
	// View calls fn with a copy of the current document.
	View(ctx context.Context, fn func(doc *Document) error) error

	// Update calls fn with a mutable copy of the document and commits it
	// when fn returns nil.
	Update(ctx context.Context, fn func(doc *Document) error) error

	// Close releases resources held by the store.
	Close() error
}
