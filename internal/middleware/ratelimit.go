package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"

	"internet-banking/internal/utils"
)

const (
	rateLimitPrefix  = "ratelimit:"
	rateLimitTimeout = 500 * time.Millisecond
)

// KeyFunc picks the bucket a request is counted against. An empty key skips
// limiting for that request.
type KeyFunc func(ctx *fasthttp.RequestCtx) string

// RateLimiter is a fixed-window counter kept in Redis, shared by every
// instance pointing at the same server. A nil client disables it.
type RateLimiter struct {
	client  *redis.Client
	name    string
	max     int
	window  time.Duration
	keyFunc KeyFunc
	message string
}

func NewRateLimiter(client *redis.Client, name string, max int, window time.Duration, keyFunc KeyFunc, message string) *RateLimiter {
	return &RateLimiter{
		client:  client,
		name:    name,
		max:     max,
		window:  window,
		keyFunc: keyFunc,
		message: message,
	}
}

func ByClientIP(ctx *fasthttp.RequestCtx) string {
	return ClientIP(ctx)
}

// ByAccount must run inside RequireAuth.
func ByAccount(ctx *fasthttp.RequestCtx) string {
	return AccountID(ctx)
}

// hit counts one request and reports whether it is over the limit together
// with the time left in the window. The window is opened with SET NX PX in the
// same MULTI as the INCR, so a counter never exists without a TTL.
func (l *RateLimiter) hit(ctx context.Context, key string) (bool, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, rateLimitTimeout)
	defer cancel()

	redisKey := rateLimitPrefix + l.name + ":" + key

	var (
		count *redis.IntCmd
		ttl   *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, redisKey, 0, l.window)
		count = pipe.Incr(ctx, redisKey)
		ttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	if count.Val() <= int64(l.max) {
		return false, 0, nil
	}

	left := ttl.Val()
	if left <= 0 {
		left = l.window
	}
	return true, left, nil
}

func (l *RateLimiter) Limit(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	if l == nil || l.client == nil {
		return next
	}

	return func(ctx *fasthttp.RequestCtx) {
		key := l.keyFunc(ctx)
		if key == "" {
			next(ctx)
			return
		}

		limited, retryAfter, err := l.hit(ctx, key)
		if err != nil {
			utils.LogWarning("RateLimiter", "%s limiter unavailable, allowing request: %v", l.name, err)
			next(ctx)
			return
		}
		if limited {
			utils.LogWarning("RateLimiter", "%s limit exceeded for %s", l.name, key)
			seconds := int(retryAfter.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			ctx.Response.Header.Set("Retry-After", strconv.Itoa(seconds))
			reject(ctx, fasthttp.StatusTooManyRequests, l.message, time.Now())
			return
		}

		next(ctx)
	}
}
