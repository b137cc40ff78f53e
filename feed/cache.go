package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/ripplehq/ripple/model"
)

// DefaultCacheTTL is how long an assembled feed page stays valid without
// explicit invalidation.
const DefaultCacheTTL = 5 * time.Minute

const (
	cacheKeyPrefix    = "feedcache"
	cacheKeyDelimiter = "__"
)

// GlobalFeedUser keys cache entries of feeds that are not user-scoped
// (trending).
const GlobalFeedUser = "global"

var ctx = context.Background()

// CacheStore memoizes assembled feed pages per (user, feed type, limit,
// page). The limit is part of the key: the same page number at different
// page sizes is a different window of the ranking, never a shared entry.
// At most one live entry exists per key, enforced by upsert-by-key. A stored
// ordering is the ranking snapshot at write time, never re-evaluated on read.
type CacheStore interface {
	// Get returns the cached id list and true iff a live entry exists.
	Get(userID string, feedType model.FeedType, limit int, page int) ([]string, bool, error)
	// Put upserts the entry for the key and stamps its expiry.
	Put(userID string, feedType model.FeedType, postIds []string, limit int, page int, ttl time.Duration) error
	// Invalidate drops all entries for the user, optionally scoped to one
	// feed type (empty feedType means all).
	Invalidate(userID string, feedType model.FeedType) error
	// ClearExpired batch-deletes dead entries. Reads never delete, they just
	// treat expired entries as misses, so a periodic sweep owns cleanup.
	ClearExpired() error
}

// cacheEntry is the stored value. Expiry travels inside the value, the redis
// key TTL is only a backstop, so Get/ClearExpired see the same clock.
type cacheEntry struct {
	PostIds   []string  `json:"post_ids"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedisCacheStore is the production CacheStore.
type RedisCacheStore struct {
	inner *redis.Client
}

func NewRedisCacheStore(client *redis.Client) *RedisCacheStore {
	return &RedisCacheStore{inner: client}
}

func cacheKey(userID string, feedType model.FeedType, limit int, page int) string {
	return strings.Join([]string{cacheKeyPrefix, userID, string(feedType), fmt.Sprint(limit), fmt.Sprint(page)}, cacheKeyDelimiter)
}

func (s *RedisCacheStore) Get(userID string, feedType model.FeedType, limit int, page int) ([]string, bool, error) {
	raw, err := s.inner.Get(ctx, cacheKey(userID, feedType, limit, page)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "fail to read feed cache")
	}

	var entry cacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false, errors.Wrap(err, "corrupt feed cache entry")
	}
	if !entry.ExpiresAt.After(time.Now()) {
		return nil, false, nil
	}
	return entry.PostIds, true, nil
}

func (s *RedisCacheStore) Put(userID string, feedType model.FeedType, postIds []string, limit int, page int, ttl time.Duration) error {
	entry := cacheEntry{
		PostIds:   postIds,
		ExpiresAt: time.Now().Add(ttl),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "fail to encode feed cache entry")
	}
	// Double the TTL on the key itself so redis eventually evicts entries the
	// sweep missed.
	err = s.inner.Set(ctx, cacheKey(userID, feedType, limit, page), raw, 2*ttl).Err()
	return errors.Wrap(err, "fail to write feed cache")
}

func (s *RedisCacheStore) Invalidate(userID string, feedType model.FeedType) error {
	pattern := strings.Join([]string{cacheKeyPrefix, userID, string(feedType)}, cacheKeyDelimiter) + "*"
	if feedType == "" {
		pattern = strings.Join([]string{cacheKeyPrefix, userID}, cacheKeyDelimiter) + cacheKeyDelimiter + "*"
	}

	iter := s.inner.Scan(ctx, 0, pattern, 0).Iterator()
	keys := []string{}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "fail to scan feed cache keys")
	}
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(s.inner.Del(ctx, keys...).Err(), "fail to invalidate feed cache")
}

func (s *RedisCacheStore) ClearExpired() error {
	now := time.Now()
	iter := s.inner.Scan(ctx, 0, cacheKeyPrefix+cacheKeyDelimiter+"*", 0).Iterator()
	expired := []string{}
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.inner.Get(ctx, key).Result()
		if err != nil {
			continue
		}
		var entry cacheEntry
		if json.Unmarshal([]byte(raw), &entry) != nil || !entry.ExpiresAt.After(now) {
			expired = append(expired, key)
		}
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "fail to scan feed cache for sweep")
	}
	if len(expired) == 0 {
		return nil
	}
	return errors.Wrap(s.inner.Del(ctx, expired...).Err(), "fail to sweep expired feed cache")
}

// MemoryCacheStore is an in-process CacheStore, used in tests and as a
// fallback when redis is not configured.
type MemoryCacheStore struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewMemoryCacheStore() *MemoryCacheStore {
	return &MemoryCacheStore{entries: map[string]cacheEntry{}}
}

func (s *MemoryCacheStore) Get(userID string, feedType model.FeedType, limit int, page int) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[cacheKey(userID, feedType, limit, page)]
	if !ok || !entry.ExpiresAt.After(time.Now()) {
		return nil, false, nil
	}
	return entry.PostIds, true, nil
}

func (s *MemoryCacheStore) Put(userID string, feedType model.FeedType, postIds []string, limit int, page int, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[cacheKey(userID, feedType, limit, page)] = cacheEntry{
		PostIds:   postIds,
		ExpiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryCacheStore) Invalidate(userID string, feedType model.FeedType) error {
	prefix := strings.Join([]string{cacheKeyPrefix, userID, string(feedType)}, cacheKeyDelimiter)
	if feedType == "" {
		prefix = strings.Join([]string{cacheKeyPrefix, userID}, cacheKeyDelimiter) + cacheKeyDelimiter
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *MemoryCacheStore) ClearExpired() error {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if !entry.ExpiresAt.After(now) {
			delete(s.entries, key)
		}
	}
	return nil
}
