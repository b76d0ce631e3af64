package storage

import (
	"context"
	"io"
)

// Storage is the file storage port used by assessments, proofs and
// exports. Implementations own path layout beneath their root.
type Storage interface {
	Store(ctx context.Context, path string, r io.Reader) error
	URL(path string) string
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}
