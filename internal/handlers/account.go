package handlers

import (
	"time"

	"github.com/valyala/fasthttp"

	"internet-banking/internal/middleware"
	"internet-banking/internal/services"
	"internet-banking/internal/utils"
)

type AccountHandler struct {
	accountService *services.AccountService
	auditService   *services.AuditService
}

func NewAccountHandler(accountService *services.AccountService, auditService *services.AuditService) *AccountHandler {
	utils.LogSuccess("AccountHandler", "account handler initialized")
	return &AccountHandler{accountService: accountService, auditService: auditService}
}

// Dashboard handles GET /api/user/dashboard.
func (h *AccountHandler) Dashboard(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	dashboard, err := h.accountService.Dashboard(ctx, middleware.AccountID(ctx))
	if err != nil {
		writeError(ctx, "AccountHandler", err, start)
		return
	}

	writeOK(ctx, fasthttp.StatusOK, dashboard, start)
}

// Transactions handles GET /api/user/transactions?page&limit.
func (h *AccountHandler) Transactions(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	page := pageFromQuery(ctx, services.DefaultTransactionLimit)
	list, err := h.accountService.Transactions(ctx, middleware.AccountID(ctx), page)
	if err != nil {
		writeError(ctx, "AccountHandler", err, start)
		return
	}

	writeOK(ctx, fasthttp.StatusOK, list, start)
}

// MyLogs handles GET /api/audit/my-logs.
func (h *AccountHandler) MyLogs(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	page := pageFromQuery(ctx, services.DefaultMyLogsLimit)
	logs, err := h.auditService.ListMine(ctx, middleware.AccountID(ctx), page)
	if err != nil {
		writeError(ctx, "AccountHandler", err, start)
		return
	}

	writeOK(ctx, fasthttp.StatusOK, logs, start)
}
