package models

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	AuditUserRegistered   AuditAction = "USER_REGISTERED"
	AuditUserLogin        AuditAction = "USER_LOGIN"
	AuditDeposit          AuditAction = "DEPOSIT"
	AuditWithdraw         AuditAction = "WITHDRAW"
	AuditTransferSent     AuditAction = "TRANSFER_SENT"
	AuditTransferReceived AuditAction = "TRANSFER_RECEIVED"
	AuditAccountFrozen    AuditAction = "ACCOUNT_FROZEN"
	AuditAccountUnfrozen  AuditAction = "ACCOUNT_UNFROZEN"
	AuditUserDeleted      AuditAction = "USER_DELETED"
)

// AuditEntry is append-only. It disappears only with its account.
type AuditEntry struct {
	ID        string          `json:"id"`
	AccountID string          `json:"userId"`
	Action    AuditAction     `json:"action"`
	Metadata  json.RawMessage `json:"metadata"`
	IPAddress string          `json:"ipAddress"`
	CreatedAt time.Time       `json:"createdAt"`

	User *PartySummary `json:"user,omitempty"`
}

type AuditListResponse struct {
	Logs       []AuditEntry `json:"logs"`
	Pagination Pagination   `json:"pagination"`
}
