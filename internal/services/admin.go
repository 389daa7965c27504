package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"internet-banking/internal/cache"
	"internet-banking/internal/models"
	"internet-banking/internal/repository"
	"internet-banking/internal/utils"
	"internet-banking/internal/worker"
)

const (
	DefaultUserListLimit  = 20
	DefaultAuditListLimit = 50
	StatsRecentLimit      = 10
)

// AdminService holds the administrative operations. Callers must already have
// checked that the actor is an admin.
type AdminService struct {
	store      repository.Store
	audit      *AuditService
	cache      *cache.RedisCache
	workerPool *worker.WorkerPool
}

func NewAdminService(store repository.Store, audit *AuditService) *AdminService {
	return &AdminService{store: store, audit: audit}
}

func NewAdminServiceWithCache(store repository.Store, audit *AuditService, cache *cache.RedisCache) *AdminService {
	return &AdminService{store: store, audit: audit, cache: cache}
}

func (s *AdminService) SetWorkerPool(pool *worker.WorkerPool) {
	s.workerPool = pool
}

func (s *AdminService) ListAccounts(ctx context.Context, page models.Page) (*models.AccountListResponse, error) {
	accounts, total, err := s.store.Accounts().List(ctx, page)
	if err != nil {
		utils.LogError("AdminService", "failed to list accounts", err)
		return nil, err
	}
	return &models.AccountListResponse{Users: accounts, Pagination: models.NewPagination(page, total)}, nil
}

// lockTarget loads an account for modification and refuses admin targets.
func lockTarget(ctx context.Context, tx repository.Tx, targetID string) (*models.Account, error) {
	if _, err := uuid.Parse(targetID); err != nil {
		return nil, ErrNotFound
	}
	target, err := tx.Accounts().GetByIDForUpdate(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if target.IsAdmin() {
		return nil, ErrCannotModifyAdmin
	}
	return target, nil
}

// SetFrozen freezes or unfreezes a regular account. The audit entry belongs to
// the target account.
func (s *AdminService) SetFrozen(ctx context.Context, actor Actor, targetID string, freeze bool) (*models.Account, error) {
	utils.LogInfo("AdminService", "admin %s setting frozen=%t on %s", actor.AccountID, freeze, targetID)

	var updated *models.Account
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		target, err := lockTarget(ctx, tx, targetID)
		if err != nil {
			return err
		}

		updated, err = tx.Accounts().SetFrozen(ctx, target.ID, freeze)
		if err != nil {
			return err
		}

		action := models.AuditAccountUnfrozen
		if freeze {
			action = models.AuditAccountFrozen
		}
		_, err = s.audit.Record(ctx, tx.Audit(), actor.AccountID, actor.IP, action, map[string]any{
			"targetUserId":    target.ID,
			"targetUserEmail": target.Email,
		})
		return err
	})
	if err != nil {
		s.logFailure("freeze", err)
		return nil, err
	}

	invalidateAccountsAsync(s.cache, s.workerPool, "AdminService", "freeze-"+targetID, targetID)

	utils.LogSuccess("AdminService", "account %s frozen=%t", updated.AccountNumber, updated.IsFrozen)
	return updated, nil
}

// DeleteAccount removes a regular account together with its audit trail and
// every transaction it took part in. The audit entry is written against the
// acting admin.
func (s *AdminService) DeleteAccount(ctx context.Context, actor Actor, targetID string) error {
	utils.LogInfo("AdminService", "admin %s deleting %s", actor.AccountID, targetID)

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		target, err := lockTarget(ctx, tx, targetID)
		if err != nil {
			return err
		}

		logs, err := tx.Audit().DeleteForAccount(ctx, target.ID)
		if err != nil {
			return err
		}
		txs, err := tx.Transactions().DeleteForAccount(ctx, target.ID)
		if err != nil {
			return err
		}
		if err := tx.Accounts().Delete(ctx, target.ID); err != nil {
			return err
		}
		utils.LogDebug("AdminService", "cascade removed %d audit entries and %d transactions", logs, txs)

		_, err = s.audit.Record(ctx, tx.Audit(), actor.AccountID, actor.IP, models.AuditUserDeleted, map[string]any{
			"deletedUserId":    target.ID,
			"deletedUserEmail": target.Email,
		})
		return err
	})
	if err != nil {
		s.logFailure("delete", err)
		return err
	}

	invalidateAccountsAsync(s.cache, s.workerPool, "AdminService", "delete-"+targetID, targetID)

	utils.LogSuccess("AdminService", "account %s deleted", targetID)
	return nil
}

func (s *AdminService) Stats(ctx context.Context) (*models.StatsResponse, error) {
	stats, err := s.store.Accounts().Stats(ctx)
	if err != nil {
		utils.LogError("AdminService", "failed to compute stats", err)
		return nil, err
	}

	recent, err := s.store.Transactions().Recent(ctx, StatsRecentLimit)
	if err != nil {
		utils.LogError("AdminService", "failed to load recent transactions", err)
		return nil, err
	}

	return &models.StatsResponse{Stats: *stats, RecentTransactions: recent}, nil
}

func (s *AdminService) AuditLogs(ctx context.Context, page models.Page) (*models.AuditListResponse, error) {
	return s.audit.ListAll(ctx, page)
}

func (s *AdminService) logFailure(op string, err error) {
	if kind, ok := KindOf(err); ok {
		utils.LogWarning("AdminService", "%s rejected: %s", op, kind)
		return
	}
	utils.LogError("AdminService", op+" failed", err)
}
