package history

import (
	"context"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/rutvikbangar/collab-sphere/domain/board"
)

// CacheStore is the subset of cache operations the read side needs. A nil
// CacheStore disables caching entirely.
type CacheStore interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Del(ctx context.Context, keys ...string) error
}

// ReadService serves REST history reads with a cache-aside layer and
// singleflight stampede suppression. It is strictly a read optimization for
// the room-detail endpoints: the hub's join path reads the Store directly
// inside the room's serialized section and never goes through here.
type ReadService struct {
	store *Store
	cache CacheStore
	group singleflight.Group
}

// NewReadService creates a read service. cache may be nil.
func NewReadService(store *Store, cache CacheStore) *ReadService {
	return &ReadService{store: store, cache: cache}
}

func strokesKey(roomID string) string  { return "strokes:" + roomID }
func messagesKey(roomID string) string { return "messages:" + roomID }

// Strokes returns a room's strokes, oldest first.
func (s *ReadService) Strokes(ctx context.Context, roomID string) ([]board.Stroke, error) {
	if s.cache != nil {
		var cached []board.Stroke
		found, err := s.cache.Get(ctx, strokesKey(roomID), &cached)
		if err != nil {
			log.Printf("[history] Cache error for room %s: %v", roomID, err)
		}
		if found {
			return cached, nil
		}
	}

	v, err, _ := s.group.Do(strokesKey(roomID), func() (any, error) {
		strokes, err := s.store.ListStrokes(ctx, roomID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, strokesKey(roomID), strokes); err != nil {
				log.Printf("[history] Failed to cache strokes for room %s: %v", roomID, err)
			}
		}
		return strokes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]board.Stroke), nil
}

// Messages returns a room's chat messages, oldest first.
func (s *ReadService) Messages(ctx context.Context, roomID string) ([]board.ChatMessage, error) {
	if s.cache != nil {
		var cached []board.ChatMessage
		found, err := s.cache.Get(ctx, messagesKey(roomID), &cached)
		if err != nil {
			log.Printf("[history] Cache error for room %s: %v", roomID, err)
		}
		if found {
			return cached, nil
		}
	}

	v, err, _ := s.group.Do(messagesKey(roomID), func() (any, error) {
		messages, err := s.store.ListMessages(ctx, roomID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, messagesKey(roomID), messages); err != nil {
				log.Printf("[history] Failed to cache messages for room %s: %v", roomID, err)
			}
		}
		return messages, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]board.ChatMessage), nil
}

// Invalidate drops a room's cached history after a write.
func (s *ReadService) Invalidate(ctx context.Context, roomID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, strokesKey(roomID), messagesKey(roomID)); err != nil {
		log.Printf("[history] Failed to invalidate cache for room %s: %v", roomID, err)
	}
}
