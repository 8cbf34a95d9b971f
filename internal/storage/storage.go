// Package storage defines the key/blob persistence port used by the record store.
package storage

import "context"

// Keys under which the store persists its state.
const (
	RecordsKey  = "recordsStore"
	IdentityKey = "currentUserStore"
)

// Backend persists opaque blobs by key. Load reports found=false for a key
// that was never saved.
type Backend interface {
	Save(ctx context.Context, key string, blob []byte) error
	Load(ctx context.Context, key string) (blob []byte, found bool, err error)
}
