package handlers

import (
	"time"

	"github.com/valyala/fasthttp"

	"internet-banking/internal/models"
	"internet-banking/internal/services"
	"internet-banking/internal/utils"
)

type AdminHandler struct {
	service *services.AdminService
}

func NewAdminHandler(service *services.AdminService) *AdminHandler {
	utils.LogSuccess("AdminHandler", "admin handler initialized")
	return &AdminHandler{service: service}
}

func targetID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("userId").(string)
	return id
}

// Users handles GET /api/admin/users.
func (h *AdminHandler) Users(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	list, err := h.service.ListAccounts(ctx, pageFromQuery(ctx, services.DefaultUserListLimit))
	if err != nil {
		writeError(ctx, "AdminHandler", err, start)
		return
	}

	writeOK(ctx, fasthttp.StatusOK, list, start)
}

// Freeze handles PATCH /api/admin/users/{userId}/freeze.
func (h *AdminHandler) Freeze(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	var req models.FreezeRequest
	if err := decodeBody(ctx, &req); err != nil {
		writeError(ctx, "AdminHandler", err, start)
		return
	}

	account, err := h.service.SetFrozen(ctx, actorFrom(ctx), targetID(ctx), *req.Freeze)
	if err != nil {
		writeError(ctx, "AdminHandler", err, start)
		return
	}

	message := "User unfrozen successfully"
	if account.IsFrozen {
		message = "User frozen successfully"
	}
	writeOK(ctx, fasthttp.StatusOK, map[string]any{"message": message, "user": account}, start)
}

// Delete handles DELETE /api/admin/users/{userId}.
func (h *AdminHandler) Delete(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	if err := h.service.DeleteAccount(ctx, actorFrom(ctx), targetID(ctx)); err != nil {
		writeError(ctx, "AdminHandler", err, start)
		return
	}

	writeOK(ctx, fasthttp.StatusOK, map[string]string{"message": "User deleted successfully"}, start)
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		writeError(ctx, "AdminHandler", err, start)
		return
	}

	writeOK(ctx, fasthttp.StatusOK, stats, start)
}

// AuditLogs handles GET /api/admin/audit-logs.
func (h *AdminHandler) AuditLogs(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	logs, err := h.service.AuditLogs(ctx, pageFromQuery(ctx, services.DefaultAuditListLimit))
	if err != nil {
		writeError(ctx, "AdminHandler", err, start)
		return
	}

	writeOK(ctx, fasthttp.StatusOK, logs, start)
}
