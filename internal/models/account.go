package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Account is both the login identity and the ledger account.
type Account struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	PasswordHash  string          `json:"-"`
	AccountNumber string          `json:"accountNumber"`
	IFSCCode      string          `json:"ifscCode"`
	Balance       decimal.Decimal `json:"balance"`
	Role          Role            `json:"role"`
	IsFrozen      bool            `json:"isFrozen"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// PartySummary is the counterparty view embedded in transaction and audit listings.
type PartySummary struct {
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	AccountNumber string `json:"accountNumber"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type FreezeRequest struct {
	Freeze *bool `json:"freeze" validate:"required"`
}

type AuthResponse struct {
	Message string   `json:"message"`
	User    *Account `json:"user"`
	Token   string   `json:"token"`
}

type DashboardResponse struct {
	User               *Account      `json:"user"`
	RecentTransactions []Transaction `json:"recentTransactions"`
}

type AccountListResponse struct {
	Users      []Account  `json:"users"`
	Pagination Pagination `json:"pagination"`
}

type SystemStats struct {
	TotalUsers        int             `json:"totalUsers"`
	TotalTransactions int             `json:"totalTransactions"`
	TotalLiquidity    decimal.Decimal `json:"totalLiquidity"`
	FrozenAccounts    int             `json:"frozenAccounts"`
	TodayTransactions int             `json:"todayTransactions"`
}

type StatsResponse struct {
	Stats              SystemStats   `json:"stats"`
	RecentTransactions []Transaction `json:"recentTransactions"`
}
