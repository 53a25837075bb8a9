package port

import "context"

// FileStorage stores exported files below a base directory
type FileStorage interface {
	// Save writes content atomically. Paths escaping the base are refused.
	Save(ctx context.Context, path string, content []byte) error
	Exists(ctx context.Context, path string) bool
	GetFullPath(relativePath string) string
}
