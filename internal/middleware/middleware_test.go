package middleware

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"internet-banking/internal/models"
	"internet-banking/internal/services"
)

func newCtx(method, uri, ip string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)

	var ctx fasthttp.RequestCtx
	ctx.Init(&req, &net.TCPAddr{IP: net.ParseIP(ip), Port: 5555}, nil)
	return &ctx
}

func okHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
}

func TestRateLimiterFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRateLimiter(client, "login", 2, time.Minute, ByClientIP, "slow down")
	h := limiter.Limit(okHandler)

	for i := 0; i < 2; i++ {
		ctx := newCtx("POST", "/api/auth/login", "10.0.0.1")
		h(ctx)
		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	}
	assert.Equal(t, "2", mustGet(t, mr, "ratelimit:login:10.0.0.1"))
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:login:10.0.0.1"))

	ctx := newCtx("POST", "/api/auth/login", "10.0.0.1")
	h(ctx)
	assert.Equal(t, fasthttp.StatusTooManyRequests, ctx.Response.StatusCode())
	assert.Equal(t, "60", string(ctx.Response.Header.Peek("Retry-After")))
	assert.Contains(t, string(ctx.Response.Body()), "slow down")

	other := newCtx("POST", "/api/auth/login", "10.0.0.2")
	h(other)
	assert.Equal(t, fasthttp.StatusOK, other.Response.StatusCode())

	mr.FastForward(time.Minute + time.Second)
	ctx = newCtx("POST", "/api/auth/login", "10.0.0.1")
	h(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

func TestRateLimiterWindowNotExtended(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := NewRateLimiter(client, "api", 5, time.Minute, ByClientIP, "").Limit(okHandler)
	h(newCtx("GET", "/api/user/dashboard", "10.0.0.3"))

	mr.FastForward(40 * time.Second)
	h(newCtx("GET", "/api/user/dashboard", "10.0.0.3"))

	assert.Equal(t, "2", mustGet(t, mr, "ratelimit:api:10.0.0.3"))
	assert.Equal(t, 20*time.Second, mr.TTL("ratelimit:api:10.0.0.3"))

	mr.FastForward(21 * time.Second)
	assert.False(t, mr.Exists("ratelimit:api:10.0.0.3"))
}

func TestRateLimiterFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	h := NewRateLimiter(client, "api", 1, time.Minute, ByClientIP, "").Limit(okHandler)
	for i := 0; i < 3; i++ {
		ctx := newCtx("GET", "/api/user/dashboard", "10.0.0.1")
		h(ctx)
		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	}
}

func TestRateLimiterDisabledWithoutClient(t *testing.T) {
	var nilLimiter *RateLimiter
	ctx := newCtx("GET", "/", "10.0.0.1")
	nilLimiter.Limit(okHandler)(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ctx = newCtx("GET", "/", "10.0.0.1")
	NewRateLimiter(nil, "api", 1, time.Minute, ByClientIP, "").Limit(okHandler)(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}

type stubAuth struct {
	account *models.Account
	err     error
}

func (s stubAuth) Authenticate(context.Context, string) (*models.Account, error) {
	return s.account, s.err
}

func TestRequireAuth(t *testing.T) {
	user := &models.Account{ID: "acc-1", Role: models.RoleUser}

	tests := []struct {
		name   string
		header string
		auth   stubAuth
		status int
	}{
		{"no header", "", stubAuth{account: user}, fasthttp.StatusUnauthorized},
		{"wrong scheme", "Basic abc", stubAuth{account: user}, fasthttp.StatusUnauthorized},
		{"bad token", "Bearer abc", stubAuth{err: services.ErrUnauthorized}, fasthttp.StatusUnauthorized},
		{"frozen", "Bearer abc", stubAuth{err: services.ErrAccountFrozen}, fasthttp.StatusForbidden},
		{"ok", "Bearer abc", stubAuth{account: user}, fasthttp.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := NewAuthMiddleware(tt.auth).RequireAuth(func(ctx *fasthttp.RequestCtx) {
				seen = AccountID(ctx)
				ctx.SetStatusCode(fasthttp.StatusOK)
			})

			ctx := newCtx("GET", "/api/auth/profile", "10.0.0.1")
			if tt.header != "" {
				ctx.Request.Header.Set("Authorization", tt.header)
			}
			h(ctx)

			assert.Equal(t, tt.status, ctx.Response.StatusCode())
			if tt.status == fasthttp.StatusOK {
				assert.Equal(t, "acc-1", seen)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	m := NewAuthMiddleware(stubAuth{})

	ctx := newCtx("GET", "/api/admin/stats", "10.0.0.1")
	ctx.SetUserValue(roleKey, models.RoleUser)
	m.RequireAdmin(okHandler)(ctx)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())

	ctx = newCtx("GET", "/api/admin/stats", "10.0.0.1")
	ctx.SetUserValue(roleKey, models.RoleAdmin)
	m.RequireAdmin(okHandler)(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	h := Chain(okHandler, CORS([]string{"http://localhost:3000"}), SecurityHeaders)

	preflight := newCtx("OPTIONS", "/api/auth/login", "10.0.0.1")
	preflight.Request.Header.Set("Origin", "http://localhost:3000")
	h(preflight)
	assert.Equal(t, fasthttp.StatusNoContent, preflight.Response.StatusCode())
	assert.Equal(t, "http://localhost:3000", string(preflight.Response.Header.Peek("Access-Control-Allow-Origin")))

	foreign := newCtx("GET", "/api/health", "10.0.0.1")
	foreign.Request.Header.Set("Origin", "http://evil.test")
	h(foreign)
	require.Equal(t, fasthttp.StatusOK, foreign.Response.StatusCode())
	assert.Empty(t, foreign.Response.Header.Peek("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", string(foreign.Response.Header.Peek("X-Content-Type-Options")))
	assert.Equal(t, "DENY", string(foreign.Response.Header.Peek("X-Frame-Options")))
}
