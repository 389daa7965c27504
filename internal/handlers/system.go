package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/valyala/fasthttp"

	"internet-banking/internal/models"
	"internet-banking/internal/services"
	"internet-banking/internal/utils"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.store.Ping(pingCtx); err != nil {
		utils.LogError("HealthHandler", "store ping failed", err)
		writeOK(ctx, fasthttp.StatusServiceUnavailable, map[string]string{"status": "unavailable"}, start)
		return
	}

	writeOK(ctx, fasthttp.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}, start)
}

type ChatHandler struct {
	service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	var req models.ChatRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeOK(ctx, fasthttp.StatusBadRequest, models.ChatResponse{Reply: "Message is required"}, start)
		return
	}

	reply, err := h.service.Reply(req.Message)
	if errors.Is(err, services.ErrEmptyMessage) {
		writeOK(ctx, fasthttp.StatusBadRequest, models.ChatResponse{Reply: "Message is required"}, start)
		return
	}

	writeOK(ctx, fasthttp.StatusOK, models.ChatResponse{Reply: reply}, start)
}
