package services

import (
	"context"
	"errors"

	"internet-banking/internal/cache"
	"internet-banking/internal/models"
	"internet-banking/internal/repository"
	"internet-banking/internal/utils"
)

const (
	DashboardRecentLimit    = 5
	DefaultTransactionLimit = 10
)

// AccountService serves an account holder's read-only views.
type AccountService struct {
	store repository.Store
	cache *cache.RedisCache
}

func NewAccountService(store repository.Store) *AccountService {
	return &AccountService{store: store}
}

func NewAccountServiceWithCache(store repository.Store, cache *cache.RedisCache) *AccountService {
	return &AccountService{store: store, cache: cache}
}

func (s *AccountService) getAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrNotFound
		}
		utils.LogError("AccountService", "failed to load account", err)
		return nil, err
	}
	return account, nil
}

func (s *AccountService) Profile(ctx context.Context, accountID string) (*models.Account, error) {
	if s.cache != nil {
		var cached models.Account
		if err := s.cache.GetJSON(ctx, cache.ProfileKey(accountID), &cached); err == nil {
			utils.LogDebug("AccountService", "profile cache hit for %s", accountID)
			return &cached, nil
		}
	}

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.ProfileKey(accountID), account, cache.ProfileTTL); err != nil {
			utils.LogWarning("AccountService", "failed to cache profile: %v", err)
		}
	}
	return account, nil
}

func (s *AccountService) Dashboard(ctx context.Context, accountID string) (*models.DashboardResponse, error) {
	utils.LogInfo("AccountService", "dashboard for %s", accountID)

	if s.cache != nil {
		var cached models.DashboardResponse
		if err := s.cache.GetJSON(ctx, cache.DashboardKey(accountID), &cached); err == nil {
			utils.LogDebug("AccountService", "dashboard cache hit for %s", accountID)
			return &cached, nil
		}
	}

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	recent, _, err := s.store.Transactions().ListForAccount(ctx, accountID, models.Page{Page: 1, Limit: DashboardRecentLimit})
	if err != nil {
		utils.LogError("AccountService", "failed to load recent transactions", err)
		return nil, err
	}

	dashboard := &models.DashboardResponse{User: account, RecentTransactions: recent}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.DashboardKey(accountID), dashboard, cache.DashboardTTL); err != nil {
			utils.LogWarning("AccountService", "failed to cache dashboard: %v", err)
		}
	}
	return dashboard, nil
}

// Transactions pages through the account's own side of the ledger, newest first.
func (s *AccountService) Transactions(ctx context.Context, accountID string, page models.Page) (*models.TransactionListResponse, error) {
	list, total, err := s.store.Transactions().ListForAccount(ctx, accountID, page)
	if err != nil {
		utils.LogError("AccountService", "failed to list transactions", err)
		return nil, err
	}

	utils.LogSuccess("AccountService", "found %d of %d transactions for %s", len(list), total, accountID)
	return &models.TransactionListResponse{
		Transactions: list,
		Pagination:   models.NewPagination(page, total),
	}, nil
}
