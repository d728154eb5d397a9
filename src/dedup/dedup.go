// Package dedup remembers recently seen inbound messages so each one is analyzed once.
// Both implementations are approximate: an evicted or expired entry is forgotten and
// the message would be analyzed again.
package dedup

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/golang/groupcache/lru"
	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/newsfilter/src/metrics"
)

// fingerprintSeed keeps fingerprints stable across restarts.
const fingerprintSeed = 0x6e657773

// Set records message fingerprints.
type Set interface {
	// Seen marks key as seen and reports whether it had been seen before.
	Seen(ctx context.Context, key uint64) (bool, error)
}

// Fingerprint hashes the identifying parts of a message, for example channel and
// message ID, or a normalized text.
func Fingerprint(parts ...string) uint64 {
	h := xxhash.NewS64(fingerprintSeed)
	h.Write([]byte(strings.Join(parts, "\x00")))
	return h.Sum64()
}

// MemorySet keeps the most recently seen keys up to a fixed capacity and evicts the
// least recently seen key first.
type MemorySet struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// NewMemorySet returns a set holding at most capacity keys.
func NewMemorySet(capacity int) *MemorySet {
	if capacity <= 0 {
		capacity = 10000
	}
	return &MemorySet{cache: lru.New(capacity)}
}

func (s *MemorySet) Seen(_ context.Context, key uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache.Get(key); ok {
		metrics.DuplicatesSkipped.Inc()
		return true, nil
	}
	s.cache.Add(key, struct{}{})
	return false, nil
}

func (s *MemorySet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// RedisSet remembers keys for a time window and is shared by every process using
// the same redis.
type RedisSet struct {
	rdb    *redis.Client
	window time.Duration
	prefix string
}

// NewRedisSet returns a set whose entries expire after window.
func NewRedisSet(rdb *redis.Client, window time.Duration) *RedisSet {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &RedisSet{rdb: rdb, window: window, prefix: "newsfilter:seen:"}
}

func (s *RedisSet) Seen(ctx context.Context, key uint64) (bool, error) {
	created, err := s.rdb.SetNX(ctx, fmt.Sprintf("%s%016x", s.prefix, key), 1, s.window).Result()
	if err != nil {
		return false, fmt.Errorf("dedup: %w", err)
	}
	if !created {
		metrics.DuplicatesSkipped.Inc()
	}
	return !created, nil
}

// NewRedis builds a client for url. It does not connect.
func NewRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return redis.NewClient(opt), nil
}
