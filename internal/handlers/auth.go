package handlers

import (
	"time"

	"github.com/valyala/fasthttp"

	"internet-banking/internal/middleware"
	"internet-banking/internal/models"
	"internet-banking/internal/services"
	"internet-banking/internal/utils"
)

type AuthHandler struct {
	authService    *services.AuthService
	accountService *services.AccountService
}

func NewAuthHandler(authService *services.AuthService, accountService *services.AccountService) *AuthHandler {
	utils.LogSuccess("AuthHandler", "auth handler initialized")
	return &AuthHandler{authService: authService, accountService: accountService}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	var req models.RegisterRequest
	if err := decodeBody(ctx, &req); err != nil {
		writeError(ctx, "AuthHandler", err, start)
		return
	}

	resp, err := h.authService.Register(ctx, req, middleware.ClientIP(ctx))
	if err != nil {
		writeError(ctx, "AuthHandler", err, start)
		return
	}

	writeOK(ctx, fasthttp.StatusCreated, resp, start)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	var req models.LoginRequest
	if err := decodeBody(ctx, &req); err != nil {
		writeError(ctx, "AuthHandler", err, start)
		return
	}

	resp, err := h.authService.Login(ctx, req, middleware.ClientIP(ctx))
	if err != nil {
		writeError(ctx, "AuthHandler", err, start)
		return
	}

	writeOK(ctx, fasthttp.StatusOK, resp, start)
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandler) Profile(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	account, err := h.accountService.Profile(ctx, middleware.AccountID(ctx))
	if err != nil {
		writeError(ctx, "AuthHandler", err, start)
		return
	}

	writeOK(ctx, fasthttp.StatusOK, map[string]any{"user": account}, start)
}
