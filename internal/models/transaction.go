package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionCredit TransactionType = "CREDIT"
	TransactionDebit  TransactionType = "DEBIT"
)

// TransactionStatus has a single value; partial or pending states are not modeled.
type TransactionStatus string

const TransactionSuccess TransactionStatus = "SUCCESS"

type Transaction struct {
	ID          string            `json:"id"`
	Amount      decimal.Decimal   `json:"amount"`
	Type        TransactionType   `json:"type"`
	SenderID    *string           `json:"senderId"`
	ReceiverID  *string           `json:"receiverId"`
	Status      TransactionStatus `json:"status"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"createdAt"`

	Sender   *PartySummary `json:"sender,omitempty"`
	Receiver *PartySummary `json:"receiver,omitempty"`
}

type DepositRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"positive_decimal"`
	Description string          `json:"description" validate:"max=255"`
}

type WithdrawRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"positive_decimal"`
	Description string          `json:"description" validate:"max=255"`
}

type TransferRequest struct {
	ReceiverAccountNumber string          `json:"receiverAccountNumber" validate:"required,len=12,numeric"`
	Amount                decimal.Decimal `json:"amount" validate:"positive_decimal"`
	Description           string          `json:"description" validate:"max=255"`
}

type BalanceResult struct {
	Balance     decimal.Decimal
	Transaction *Transaction
}

type TransferResult struct {
	SenderBalance decimal.Decimal
	Debit         *Transaction
	Credit        *Transaction
}

type BalanceResponse struct {
	Message     string          `json:"message"`
	Balance     decimal.Decimal `json:"balance"`
	Transaction *Transaction    `json:"transaction"`
}

type TransferPair struct {
	Debit  *Transaction `json:"debit"`
	Credit *Transaction `json:"credit"`
}

type TransferResponse struct {
	Message      string          `json:"message"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions TransferPair    `json:"transactions"`
}

type TransactionListResponse struct {
	Transactions []Transaction `json:"transactions"`
	Pagination   Pagination    `json:"pagination"`
}
