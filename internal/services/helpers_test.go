package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"internet-banking/internal/models"
	"internet-banking/internal/repository/memory"
)

const testIP = "127.0.0.1"

type fixture struct {
	store        *memory.Store
	audit        *AuditService
	auth         *AuthService
	transactions *TransactionService
	admin        *AdminService
	accounts     *AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	audit := NewAuditService(store)
	return &fixture{
		store: store,
		audit: audit,
		auth: NewAuthService(store, audit, AuthConfig{
			JWTSecret:  "test-secret",
			JWTExpiry:  time.Hour,
			BcryptCost: bcrypt.MinCost,
			IFSCCode:   "SBIN0001234",
		}),
		transactions: NewTransactionService(store, audit, Limits{}),
		admin:        NewAdminService(store, audit),
		accounts:     NewAccountService(store),
	}
}

func (f *fixture) register(t *testing.T, name, email string) *models.Account {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), models.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "secret123",
	}, testIP)
	require.NoError(t, err)
	return resp.User
}

func (f *fixture) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	account, err := f.store.Accounts().GetByID(context.Background(), accountID)
	require.NoError(t, err)
	return account.Balance
}

func (f *fixture) deposit(t *testing.T, accountID, amount string) {
	t.Helper()
	_, err := f.transactions.Deposit(context.Background(), actor(accountID), models.DepositRequest{Amount: dec(amount)})
	require.NoError(t, err)
}

func (f *fixture) freeze(t *testing.T, accountID string) {
	t.Helper()
	_, err := f.store.Accounts().SetFrozen(context.Background(), accountID, true)
	require.NoError(t, err)
}

func (f *fixture) auditActions(t *testing.T, accountID string) []models.AuditAction {
	t.Helper()
	logs, err := f.audit.ListMine(context.Background(), accountID, models.Page{Page: 1, Limit: models.MaxPageLimit})
	require.NoError(t, err)
	var actions []models.AuditAction
	for _, entry := range logs.Logs {
		actions = append(actions, entry.Action)
	}
	return actions
}

func actor(accountID string) Actor {
	return Actor{AccountID: accountID, Role: models.RoleUser, IP: testIP}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok, "expected a service error, got %v", err)
	require.Equal(t, want, kind, "got %s", kind)
}
