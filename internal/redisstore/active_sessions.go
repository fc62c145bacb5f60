package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"evgrid/internal/service"
)

// Store caches running charging sessions keyed by booking for live dashboards.
// It is an acceleration layer only; postgres stays authoritative.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns a redis-backed active session store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(bookingID int64) string {
	return fmt.Sprintf("charging:active:%d", bookingID)
}

// Save caches the entry.
func (s *Store) Save(ctx context.Context, entry service.ActiveSessionEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(entry.BookingID), data, s.ttl).Err()
}

// Get returns the cached entry, or nil when none is cached.
func (s *Store) Get(ctx context.Context, bookingID int64) (*service.ActiveSessionEntry, error) {
	result, err := s.client.Get(ctx, s.key(bookingID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry service.ActiveSessionEntry
	if err := json.Unmarshal([]byte(result), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Delete drops the cached entry.
func (s *Store) Delete(ctx context.Context, bookingID int64) error {
	return s.client.Del(ctx, s.key(bookingID)).Err()
}
