package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internet-banking/internal/models"
	"internet-banking/internal/repository"
)

func seedAccount(t *testing.T, s *Store, id, number, email string, balance int64) {
	t.Helper()
	require.NoError(t, s.Accounts().Create(context.Background(), &models.Account{
		ID:            id,
		Name:          "Holder " + id,
		Email:         email,
		AccountNumber: number,
		Balance:       decimal.NewFromInt(balance),
		Role:          models.RoleUser,
	}))
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedAccount(t, s, "a", "111111111111", "a@bank.test", 100)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		_, err := tx.Accounts().AdjustBalance(ctx, "a", decimal.NewFromInt(-40))
		require.NoError(t, err)
		require.NoError(t, tx.Transactions().Create(ctx, &models.Transaction{ID: "t1", Type: models.TransactionDebit}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	a, err := s.Accounts().GetByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(100)))

	stats, err := s.Accounts().Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalTransactions)
}

func TestWithinTxCommits(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedAccount(t, s, "a", "111111111111", "a@bank.test", 100)

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		_, err := tx.Accounts().AdjustBalance(ctx, "a", decimal.NewFromInt(25))
		return err
	})
	require.NoError(t, err)

	a, err := s.Accounts().GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "125", a.Balance.String())
}

func TestAccountUniqueness(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedAccount(t, s, "a", "111111111111", "a@bank.test", 0)

	err := s.Accounts().Create(ctx, &models.Account{ID: "b", Email: "a@bank.test", AccountNumber: "222222222222"})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)

	err = s.Accounts().Create(ctx, &models.Account{ID: "c", Email: "c@bank.test", AccountNumber: "111111111111"})
	assert.ErrorIs(t, err, ErrDuplicateNumber)

	exists, err := s.Accounts().AccountNumberExists(ctx, "111111111111")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAdjustBalanceRejectsNegative(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedAccount(t, s, "a", "111111111111", "a@bank.test", 10)

	_, err := s.Accounts().AdjustBalance(ctx, "a", decimal.NewFromInt(-11))
	assert.ErrorIs(t, err, ErrNegativeBalance)

	_, err = s.Accounts().AdjustBalance(ctx, "missing", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)
}

func TestLockTransferPair(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedAccount(t, s, "a", "111111111111", "a@bank.test", 10)
	seedAccount(t, s, "b", "222222222222", "b@bank.test", 10)

	sender, receiver, err := s.Accounts().LockTransferPair(ctx, "a", "222222222222")
	require.NoError(t, err)
	require.NotNil(t, sender)
	require.NotNil(t, receiver)
	assert.Equal(t, "b", receiver.ID)

	sender, receiver, err = s.Accounts().LockTransferPair(ctx, "a", "999999999999")
	require.NoError(t, err)
	assert.NotNil(t, sender)
	assert.Nil(t, receiver)
}

func TestListForAccountUsesOwnSide(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedAccount(t, s, "a", "111111111111", "a@bank.test", 0)
	seedAccount(t, s, "b", "222222222222", "b@bank.test", 0)

	a, b := "a", "b"
	amount := decimal.NewFromInt(5)
	require.NoError(t, s.Transactions().Create(ctx, &models.Transaction{ID: "d", Type: models.TransactionDebit, SenderID: &a, ReceiverID: &b, Amount: amount}))
	require.NoError(t, s.Transactions().Create(ctx, &models.Transaction{ID: "c", Type: models.TransactionCredit, SenderID: &a, ReceiverID: &b, Amount: amount}))

	own, total, err := s.Transactions().ListForAccount(ctx, "a", models.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, own, 1)
	assert.Equal(t, "d", own[0].ID)
	require.NotNil(t, own[0].Receiver)
	assert.Equal(t, "222222222222", own[0].Receiver.AccountNumber)

	own, total, err = s.Transactions().ListForAccount(ctx, "b", models.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "c", own[0].ID)
}

func TestDeleteRequiresCascade(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedAccount(t, s, "a", "111111111111", "a@bank.test", 0)
	require.NoError(t, s.Audit().Create(ctx, &models.AuditEntry{ID: "e1", AccountID: "a", Action: models.AuditUserLogin}))

	assert.ErrorIs(t, s.Accounts().Delete(ctx, "a"), ErrStillReferenced)

	removed, err := s.Audit().DeleteForAccount(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
	require.NoError(t, s.Accounts().Delete(ctx, "a"))

	_, err = s.Accounts().GetByEmail(ctx, "a@bank.test")
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)
}

func TestPagination(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedAccount(t, s, "a", "111111111111", "a@bank.test", 0)
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, s.Audit().Create(ctx, &models.AuditEntry{ID: id, AccountID: "a", Action: models.AuditUserLogin}))
	}

	page, total, err := s.Audit().ListByAccount(ctx, "a", models.Page{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "1", page[0].ID)

	page, _, err = s.Audit().List(ctx, models.Page{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page)
}
