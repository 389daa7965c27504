package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"internet-banking/internal/models"
	"internet-banking/internal/services"
	"internet-banking/internal/utils"
)

const (
	accountIDKey = "account_id"
	roleKey      = "role"
)

// Authenticator resolves a bearer token to a live account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Account, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	utils.LogSuccess("Middleware", "auth middleware initialized")
	return &AuthMiddleware{auth: auth}
}

func reject(ctx *fasthttp.RequestCtx, status int, message string, start time.Time) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	_ = json.NewEncoder(ctx).Encode(map[string]string{"message": message})
	utils.LogResponse(string(ctx.Path()), status, time.Since(start))
}

func bearerToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth loads the account named by the bearer token on every request,
// so frozen or deleted accounts lose access immediately.
func (m *AuthMiddleware) RequireAuth(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()

		token := bearerToken(ctx)
		if token == "" {
			utils.LogWarning("Middleware", "missing bearer token on %s", ctx.Path())
			reject(ctx, fasthttp.StatusUnauthorized, "Access denied. No token provided.", start)
			return
		}

		account, err := m.auth.Authenticate(ctx, token)
		switch {
		case err == nil:
		case errors.Is(err, services.ErrAccountFrozen):
			reject(ctx, fasthttp.StatusForbidden, "Account is frozen. Contact admin.", start)
			return
		case errors.Is(err, services.ErrUnauthorized):
			reject(ctx, fasthttp.StatusUnauthorized, "Invalid or expired token", start)
			return
		default:
			utils.LogError("Middleware", "authentication failed", err)
			reject(ctx, fasthttp.StatusInternalServerError, "Authentication error", start)
			return
		}

		ctx.SetUserValue(accountIDKey, account.ID)
		ctx.SetUserValue(roleKey, account.Role)
		utils.LogDebug("Middleware", "authenticated %s", account.ID)

		next(ctx)
	}
}

// RequireAdmin must run inside RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if Role(ctx) != models.RoleAdmin {
			utils.LogWarning("Middleware", "non-admin %s denied on %s", AccountID(ctx), ctx.Path())
			reject(ctx, fasthttp.StatusForbidden, "Access denied. Admin only.", time.Now())
			return
		}
		next(ctx)
	}
}

func AccountID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(accountIDKey).(string)
	return id
}

func Role(ctx *fasthttp.RequestCtx) models.Role {
	role, _ := ctx.UserValue(roleKey).(models.Role)
	return role
}

// ClientIP is the peer address; forwarding headers are not trusted.
func ClientIP(ctx *fasthttp.RequestCtx) string {
	return ctx.RemoteIP().String()
}
