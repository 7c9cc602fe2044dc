package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/imgaltgen/imgaltgen/internal/models"
)

const (
	// DailyCreditLimit is the number of generations allowed per window.
	DailyCreditLimit = 10

	// Window is the fixed quota window, aligned to absolute epoch time.
	Window = 24 * time.Hour

	keyPrefix = "imgaltgen:daily_credits"
)

// consumeScript atomically checks the counter against the limit and only
// increments when below it, setting the TTL on first creation of the key.
// Returns -1 when the limit is already reached, otherwise the new count.
var consumeScript = redis.NewScript(`
local count = tonumber(redis.call("GET", KEYS[1]) or "0")
local limit = tonumber(ARGV[1])
if count >= limit then
    return -1
end
count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return count
`)

// Limiter enforces the per-user daily credit quota against Redis.
// Peek and Consume derive the window index independently, so the key
// arithmetic lives in one place (windowIndex) and must stay there.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewLimiter(redisURL string) (*Limiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	return NewLimiterWithClient(redis.NewClient(opt)), nil
}

// NewLimiterWithClient wraps an existing client; used by tests and by
// callers sharing one connection pool.
func NewLimiterWithClient(client *redis.Client) *Limiter {
	return &Limiter{
		client: client,
		limit:  DailyCreditLimit,
		window: Window,
		now:    time.Now,
	}
}

func (l *Limiter) windowIndex() int64 {
	return l.now().UnixMilli() / l.window.Milliseconds()
}

func (l *Limiter) key(userID string) string {
	return fmt.Sprintf("%s:%s:%d", keyPrefix, userID, l.windowIndex())
}

// windowEnd is the epoch-millisecond timestamp at which the current
// window's counter expires and credits reset.
func (l *Limiter) windowEnd() int64 {
	return (l.windowIndex() + 1) * l.window.Milliseconds()
}

// Peek reads the current window's counter without mutating it.
func (l *Limiter) Peek(ctx context.Context, userID string) (*models.CreditStatus, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	used, err := l.client.Get(ctx, l.key(userID)).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read credit counter: %w", err)
	}

	remaining := l.limit - used
	if remaining < 0 {
		remaining = 0
	}

	reset := l.windowEnd()
	return &models.CreditStatus{
		Used:      used,
		Remaining: remaining,
		Limit:     l.limit,
		Reset:     reset,
		ResetDate: time.UnixMilli(reset).UTC(),
	}, nil
}

// Consume spends one credit for the current window. The check and the
// increment run as a single Redis script, so two racing calls with one
// credit left yield exactly one success.
func (l *Limiter) Consume(ctx context.Context, userID string) (*models.ConsumeResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	count, err := consumeScript.Run(ctx, l.client,
		[]string{l.key(userID)}, l.limit, l.window.Milliseconds()).Int64()
	if err != nil {
		return nil, fmt.Errorf("consume credit: %w", err)
	}

	reset := l.windowEnd()
	result := &models.ConsumeResult{
		Limit:     l.limit,
		Reset:     reset,
		ResetDate: time.UnixMilli(reset).UTC(),
	}

	if count < 0 {
		result.Success = false
		result.Remaining = 0
		return result, nil
	}

	result.Success = true
	result.Remaining = l.limit - int(count)
	if result.Remaining < 0 {
		result.Remaining = 0
	}
	return result, nil
}

func (l *Limiter) Close() error {
	return l.client.Close()
}
