package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	"internet-banking/internal/middleware"
	"internet-banking/internal/models"
	"internet-banking/internal/services"
	"internet-banking/internal/utils"
)

// StatusFor maps a business-rule violation to its HTTP status.
func StatusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindSenderNotFound, services.KindReceiverNotFound, services.KindNotFound:
		return fasthttp.StatusNotFound
	case services.KindSenderFrozen, services.KindReceiverFrozen, services.KindAccountFrozen,
		services.KindCannotModifyAdmin, services.KindForbidden:
		return fasthttp.StatusForbidden
	case services.KindSelfTransfer, services.KindInsufficientBalance, services.KindInvalidAmount,
		services.KindAmountLimitExceeded, services.KindEmailTaken:
		return fasthttp.StatusBadRequest
	case services.KindInvalidCredentials, services.KindUnauthorized:
		return fasthttp.StatusUnauthorized
	default:
		return fasthttp.StatusInternalServerError
	}
}

type errorBody struct {
	Message string       `json:"message"`
	Code    string       `json:"code,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(body); err != nil {
		utils.LogError("Handler", "failed to encode response", err)
	}
}

// writeError renders err and logs the response. Unknown errors are reported as
// an opaque 500.
func writeError(ctx *fasthttp.RequestCtx, component string, err error, start time.Time) {
	path := string(ctx.Path())

	var verr *ValidationError
	if errors.As(err, &verr) {
		writeJSON(ctx, fasthttp.StatusBadRequest, errorBody{Message: "Validation failed", Errors: verr.Fields})
		utils.LogResponse(path, fasthttp.StatusBadRequest, time.Since(start))
		return
	}

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		status := StatusFor(svcErr.Kind)
		writeJSON(ctx, status, errorBody{Message: svcErr.Message, Code: svcErr.Kind.String()})
		utils.LogResponse(path, status, time.Since(start))
		return
	}

	utils.LogError(component, "request failed", err)
	writeJSON(ctx, fasthttp.StatusInternalServerError, errorBody{Message: "Internal server error"})
	utils.LogResponse(path, fasthttp.StatusInternalServerError, time.Since(start))
}

func writeOK(ctx *fasthttp.RequestCtx, status int, body any, start time.Time) {
	writeJSON(ctx, status, body)
	utils.LogResponse(string(ctx.Path()), status, time.Since(start))
}

var errMalformedBody = &ValidationError{Fields: []FieldError{{Field: "body", Message: "Request body must be valid JSON"}}}

// decodeBody unmarshals and validates the request body into dst.
func decodeBody(ctx *fasthttp.RequestCtx, dst any) error {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		utils.LogWarning("Handler", "malformed body on %s: %v", ctx.Path(), err)
		return errMalformedBody
	}
	return validateStruct(dst)
}

// pageFromQuery reads page and limit, falling back to defaultLimit.
func pageFromQuery(ctx *fasthttp.RequestCtx, defaultLimit int) models.Page {
	args := ctx.QueryArgs()
	page, _ := strconv.Atoi(string(args.Peek("page")))
	limit, _ := strconv.Atoi(string(args.Peek("limit")))
	return models.NormalizePage(page, limit, defaultLimit)
}

// actorFrom builds the acting identity from what RequireAuth stored.
func actorFrom(ctx *fasthttp.RequestCtx) services.Actor {
	return services.Actor{
		AccountID: middleware.AccountID(ctx),
		Role:      middleware.Role(ctx),
		IP:        middleware.ClientIP(ctx),
	}
}
