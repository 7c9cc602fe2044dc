package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "imgaltgen:alttext"
	ttl       = 7 * 24 * time.Hour
)

// AltTextCache stores generated alt text keyed by the uploaded object's
// key, so a re-run against the same object skips the paid model call.
type AltTextCache struct {
	redis *redis.Client
}

func New(redisURL string) (*AltTextCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	return NewAltTextCache(redis.NewClient(opt)), nil
}

func NewAltTextCache(client *redis.Client) *AltTextCache {
	return &AltTextCache{redis: client}
}

func (c *AltTextCache) hashKey(objectKey string) string {
	hash := sha256.Sum256([]byte(objectKey))
	return fmt.Sprintf("%s:%x", keyPrefix, hash)
}

func (c *AltTextCache) Get(ctx context.Context, objectKey string) (string, bool, error) {
	text, err := c.redis.Get(ctx, c.hashKey(objectKey)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func (c *AltTextCache) Set(ctx context.Context, objectKey, altText string) error {
	return c.redis.Set(ctx, c.hashKey(objectKey), altText, ttl).Err()
}
