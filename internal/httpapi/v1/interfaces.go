package v1

import "context"

// Readier reports whether the storage backend can serve requests.
type Readier interface {
	Ready(ctx context.Context) error
}
