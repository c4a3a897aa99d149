// README: Narrow durable key/value contract backing ride and notification persistence.
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kv: key not found")

// Store is the key/value surface the domain modules consume. Values are
// opaque bytes (callers own serialization). LPush/LRange/LSet model an
// ordered most-recent-first log, with Redis list semantics: LRange bounds are
// inclusive and negative indices count from the end.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	LPush(ctx context.Context, key string, value []byte) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	LSet(ctx context.Context, key string, index int64, value []byte) error
}
