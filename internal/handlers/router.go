package handlers

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"internet-banking/internal/middleware"
)

// Routes bundles everything the router mounts.
type Routes struct {
	Auth        *AuthHandler
	Account     *AccountHandler
	Transaction *TransactionHandler
	Admin       *AdminHandler
	Health      *HealthHandler
	Chat        *ChatHandler

	AuthMiddleware *middleware.AuthMiddleware
	LoginLimiter   *middleware.RateLimiter
	APILimiter     *middleware.RateLimiter
	ChatLimiter    *middleware.RateLimiter

	CORSOrigins []string
}

// NewRouter builds the full handler chain: CORS, security headers and request
// logging around every route, then per-route auth and rate limits.
func NewRouter(rt Routes) fasthttp.RequestHandler {
	r := router.New()

	authed := func(h fasthttp.RequestHandler) fasthttp.RequestHandler {
		return rt.AuthMiddleware.RequireAuth(rt.APILimiter.Limit(h))
	}
	admin := func(h fasthttp.RequestHandler) fasthttp.RequestHandler {
		return authed(rt.AuthMiddleware.RequireAdmin(h))
	}

	api := r.Group("/api")

	api.GET("/health", rt.Health.Health)

	api.POST("/auth/register", rt.LoginLimiter.Limit(rt.Auth.Register))
	api.POST("/auth/login", rt.LoginLimiter.Limit(rt.Auth.Login))
	api.GET("/auth/profile", authed(rt.Auth.Profile))

	api.GET("/user/dashboard", authed(rt.Account.Dashboard))
	api.GET("/user/transactions", authed(rt.Account.Transactions))

	api.POST("/transaction/deposit", authed(rt.Transaction.Deposit))
	api.POST("/transaction/withdraw", authed(rt.Transaction.Withdraw))
	api.POST("/transaction/transfer", authed(rt.Transaction.Transfer))

	api.GET("/admin/users", admin(rt.Admin.Users))
	api.PATCH("/admin/users/{userId}/freeze", admin(rt.Admin.Freeze))
	api.DELETE("/admin/users/{userId}", admin(rt.Admin.Delete))
	api.GET("/admin/stats", admin(rt.Admin.Stats))
	api.GET("/admin/audit-logs", admin(rt.Admin.AuditLogs))

	api.GET("/audit/my-logs", authed(rt.Account.MyLogs))

	api.POST("/chat", rt.ChatLimiter.Limit(rt.Chat.Chat))

	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		writeJSON(ctx, fasthttp.StatusNotFound, errorBody{Message: "Route not found"})
	}
	r.PanicHandler = func(ctx *fasthttp.RequestCtx, v interface{}) {
		middleware.LogPanic(ctx, v)
		writeJSON(ctx, fasthttp.StatusInternalServerError, errorBody{Message: "Internal server error"})
	}

	return middleware.Chain(r.Handler,
		middleware.CORS(rt.CORSOrigins),
		middleware.SecurityHeaders,
		middleware.RequestLogger,
	)
}
