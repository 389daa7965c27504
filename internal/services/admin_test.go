package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internet-banking/internal/models"
	"internet-banking/internal/repository"
)

func adminActor(t *testing.T, f *fixture) Actor {
	t.Helper()
	admin, err := f.auth.EnsureAdmin(context.Background(), "Admin", "admin@example.com", "admin-pass")
	require.NoError(t, err)
	return Actor{AccountID: admin.ID, Role: models.RoleAdmin, IP: testIP}
}

func TestFreezeAndUnfreeze(t *testing.T) {
	f := newFixture(t)
	admin := adminActor(t, f)
	a := f.register(t, "Alice", "alice@example.com")

	frozen, err := f.admin.SetFrozen(context.Background(), admin, a.ID, true)
	require.NoError(t, err)
	assert.True(t, frozen.IsFrozen)

	thawed, err := f.admin.SetFrozen(context.Background(), admin, a.ID, false)
	require.NoError(t, err)
	assert.False(t, thawed.IsFrozen)

	assert.Equal(t, []models.AuditAction{models.AuditUserRegistered}, f.auditActions(t, a.ID))
	assert.Equal(t, []models.AuditAction{
		models.AuditAccountUnfrozen,
		models.AuditAccountFrozen,
	}, f.auditActions(t, admin.AccountID))

	logs, err := f.audit.ListMine(context.Background(), admin.AccountID, models.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	var meta map[string]string
	require.NoError(t, json.Unmarshal(logs.Logs[1].Metadata, &meta))
	assert.Equal(t, a.ID, meta["targetUserId"])
	assert.Equal(t, "alice@example.com", meta["targetUserEmail"])
}

func TestFreezeAuditSurvivesTargetDeletion(t *testing.T) {
	f := newFixture(t)
	admin := adminActor(t, f)
	a := f.register(t, "Alice", "alice@example.com")

	_, err := f.admin.SetFrozen(context.Background(), admin, a.ID, true)
	require.NoError(t, err)
	require.NoError(t, f.admin.DeleteAccount(context.Background(), admin, a.ID))

	assert.Equal(t, []models.AuditAction{
		models.AuditUserDeleted,
		models.AuditAccountFrozen,
	}, f.auditActions(t, admin.AccountID))
}

func TestAdminTargetsAreProtected(t *testing.T) {
	f := newFixture(t)
	admin := adminActor(t, f)

	_, err := f.admin.SetFrozen(context.Background(), admin, admin.AccountID, true)
	requireKind(t, err, KindCannotModifyAdmin)

	err = f.admin.DeleteAccount(context.Background(), admin, admin.AccountID)
	requireKind(t, err, KindCannotModifyAdmin)

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		_, err = f.admin.SetFrozen(context.Background(), admin, id, true)
		requireKind(t, err, KindNotFound)
		err = f.admin.DeleteAccount(context.Background(), admin, id)
		requireKind(t, err, KindNotFound)
	}
}

func TestDeleteCascadesAndAuditsAdmin(t *testing.T) {
	f := newFixture(t)
	admin := adminActor(t, f)
	a := f.register(t, "Alice", "alice@example.com")
	b := f.register(t, "Bob", "bob@example.com")
	f.deposit(t, a.ID, "100")

	_, err := f.transactions.Transfer(context.Background(), actor(a.ID), models.TransferRequest{
		ReceiverAccountNumber: b.AccountNumber,
		Amount:                dec("40"),
	})
	require.NoError(t, err)

	require.NoError(t, f.admin.DeleteAccount(context.Background(), admin, a.ID))

	_, err = f.store.Accounts().GetByID(context.Background(), a.ID)
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)

	assert.Empty(t, f.auditActions(t, a.ID))
	// Bob's received credit referenced Alice and goes with her.
	assert.Empty(t, history(t, f, b.ID))
	assert.True(t, f.balance(t, b.ID).Equal(dec("40")))

	logs, err := f.audit.ListMine(context.Background(), admin.AccountID, models.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, logs.Logs)
	assert.Equal(t, models.AuditUserDeleted, logs.Logs[0].Action)

	var meta map[string]string
	require.NoError(t, json.Unmarshal(logs.Logs[0].Metadata, &meta))
	assert.Equal(t, a.ID, meta["deletedUserId"])
	assert.Equal(t, "alice@example.com", meta["deletedUserEmail"])
}

func TestStatsAndListings(t *testing.T) {
	f := newFixture(t)
	adminActor(t, f)
	a := f.register(t, "Alice", "alice@example.com")
	f.register(t, "Bob", "bob@example.com")
	f.deposit(t, a.ID, "12.50")
	f.freeze(t, a.ID)

	stats, err := f.admin.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Stats.TotalUsers)
	assert.Equal(t, 1, stats.Stats.TotalTransactions)
	assert.Equal(t, 1, stats.Stats.FrozenAccounts)
	assert.Equal(t, 1, stats.Stats.TodayTransactions)
	assert.True(t, stats.Stats.TotalLiquidity.Equal(dec("12.50")))
	require.Len(t, stats.RecentTransactions, 1)

	users, err := f.admin.ListAccounts(context.Background(), models.Page{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, users.Users, 2)
	assert.Equal(t, models.Pagination{Page: 1, Limit: 2, Total: 3, Pages: 2}, users.Pagination)

	logs, err := f.admin.AuditLogs(context.Background(), models.Page{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 3, logs.Pagination.Total)
	for _, entry := range logs.Logs {
		require.NotNil(t, entry.User)
		assert.NotEmpty(t, entry.User.Email)
	}
}
