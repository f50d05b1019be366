// Package store persists payment outcome records for audit and later
// re-display. The core only writes; read-back is a caller concern.
package store

import "context"

// Store is a write-only key/value record sink.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
}
