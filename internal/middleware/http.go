package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"internet-banking/internal/utils"
)

const (
	corsAllowMethods = "GET, POST, PATCH, DELETE, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type"
	corsMaxAge       = "600"
)

// CORS answers preflight requests and echoes allowed origins with credentials.
func CORS(allowed []string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	origins := make(map[string]struct{}, len(allowed))
	wildcard := false
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
		origins[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			origin := string(ctx.Request.Header.Peek("Origin"))
			if origin != "" {
				if _, ok := origins[origin]; ok || wildcard {
					h := &ctx.Response.Header
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
					h.Set("Access-Control-Allow-Methods", corsAllowMethods)
					h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
					h.Add("Vary", "Origin")
				}
			}

			if ctx.IsOptions() {
				ctx.Response.Header.Set("Access-Control-Max-Age", corsMaxAge)
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}
			next(ctx)
		}
	}
}

// SecurityHeaders sets the usual hardening headers for a JSON API.
func SecurityHeaders(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		h := &ctx.Response.Header
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		next(ctx)
	}
}

// RequestLogger logs the request line on entry and status with duration on exit.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		utils.LogRequest(string(ctx.Method()), string(ctx.Path()), AccountID(ctx))
		next(ctx)
		utils.LogDebug("HTTP", "%s %s -> %d in %v", ctx.Method(), ctx.Path(), ctx.Response.StatusCode(), time.Since(start))
	}
}

// Chain applies middlewares so the first one listed runs outermost.
func Chain(h fasthttp.RequestHandler, mws ...func(fasthttp.RequestHandler) fasthttp.RequestHandler) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// LogPanic records a recovered handler panic.
func LogPanic(ctx *fasthttp.RequestCtx, v interface{}) {
	utils.LogError("HTTP", fmt.Sprintf("panic on %s %s", ctx.Method(), ctx.Path()), fmt.Errorf("%v", v))
}
