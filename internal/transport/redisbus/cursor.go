package redisbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CursorStore keeps resume tokens under cursor:<stream_id>.
type CursorStore struct {
	client kv
}

// NewCursorStore creates a CursorStore.
func NewCursorStore(client kv) *CursorStore {
	return &CursorStore{client: client}
}

func cursorKey(streamID string) string { return "cursor:" + streamID }

// LoadCursor returns the saved token of streamID, or nil.
func (s *CursorStore) LoadCursor(ctx context.Context, streamID string) ([]byte, error) {
	b, err := s.client.Get(ctx, cursorKey(streamID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cursor %s: %w", streamID, err)
	}
	return b, nil
}

// PersistCursor stores token without expiry.
func (s *CursorStore) PersistCursor(ctx context.Context, streamID string, token []byte) error {
	if err := s.client.Set(ctx, cursorKey(streamID), token, 0).Err(); err != nil {
		return fmt.Errorf("persist cursor %s: %w", streamID, err)
	}
	return nil
}
