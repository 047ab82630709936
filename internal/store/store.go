package store

import "context"

// Keys under which the game keeps its state.
const (
	KeyCollection = "prize_collection"
	KeyHistory    = "catch_history"
	KeyFavorites  = "favorites"
	KeySession    = "session"
)

// KV is durable string-keyed storage for serialized snapshots.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
