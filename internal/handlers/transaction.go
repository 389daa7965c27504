package handlers

import (
	"time"

	"github.com/valyala/fasthttp"

	"internet-banking/internal/models"
	"internet-banking/internal/services"
	"internet-banking/internal/utils"
)

type TransactionHandler struct {
	service *services.TransactionService
}

func NewTransactionHandler(service *services.TransactionService) *TransactionHandler {
	utils.LogSuccess("TransactionHandler", "transaction handler initialized")
	return &TransactionHandler{service: service}
}

// Deposit handles POST /api/transaction/deposit.
func (h *TransactionHandler) Deposit(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	var req models.DepositRequest
	if err := decodeBody(ctx, &req); err != nil {
		writeError(ctx, "TransactionHandler", err, start)
		return
	}

	result, err := h.service.Deposit(ctx, actorFrom(ctx), req)
	if err != nil {
		writeError(ctx, "TransactionHandler", err, start)
		return
	}

	writeOK(ctx, fasthttp.StatusOK, models.BalanceResponse{
		Message:     "Deposit successful",
		Balance:     result.Balance,
		Transaction: result.Transaction,
	}, start)
}

// Withdraw handles POST /api/transaction/withdraw.
func (h *TransactionHandler) Withdraw(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	var req models.WithdrawRequest
	if err := decodeBody(ctx, &req); err != nil {
		writeError(ctx, "TransactionHandler", err, start)
		return
	}

	result, err := h.service.Withdraw(ctx, actorFrom(ctx), req)
	if err != nil {
		writeError(ctx, "TransactionHandler", err, start)
		return
	}

	writeOK(ctx, fasthttp.StatusOK, models.BalanceResponse{
		Message:     "Withdrawal successful",
		Balance:     result.Balance,
		Transaction: result.Transaction,
	}, start)
}

// Transfer handles POST /api/transaction/transfer.
func (h *TransactionHandler) Transfer(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	var req models.TransferRequest
	if err := decodeBody(ctx, &req); err != nil {
		writeError(ctx, "TransactionHandler", err, start)
		return
	}

	result, err := h.service.Transfer(ctx, actorFrom(ctx), req)
	if err != nil {
		writeError(ctx, "TransactionHandler", err, start)
		return
	}

	writeOK(ctx, fasthttp.StatusOK, models.TransferResponse{
		Message: "Transfer successful",
		Balance: result.SenderBalance,
		Transactions: models.TransferPair{
			Debit:  result.Debit,
			Credit: result.Credit,
		},
	}, start)
}
