// Package cache provides a Redis-backed byte cache for synthesized audio.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voxprep/interview-evaluator/internal/domain"
)

// AudioCache stores synthesized audio keyed by the text and voice that
// produced it. Entries expire after the configured TTL.
type AudioCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAudioCache constructs an AudioCache against the given Redis address.
func NewAudioCache(addr string, ttl time.Duration) *AudioCache {
	return &AudioCache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

// Key derives the cache key for a text/voice pair.
func Key(text, voice string) string {
	sum := sha256.Sum256([]byte(voice + "\x00" + text))
	return "tts:" + hex.EncodeToString(sum[:])
}

// Get returns the cached audio for the key, or domain.ErrNotFound on a miss.
func (c *AudioCache) Get(ctx domain.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("op=cache.get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("op=cache.get: %w", err)
	}
	return b, nil
}

// Set stores the audio under the key with the cache TTL.
func (c *AudioCache) Set(ctx domain.Context, key string, audio []byte) error {
	if err := c.rdb.Set(ctx, key, audio, c.ttl).Err(); err != nil {
		return fmt.Errorf("op=cache.set: %w", err)
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (c *AudioCache) Ping(ctx domain.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *AudioCache) Close() error {
	return c.rdb.Close()
}
