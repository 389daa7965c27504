package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"internet-banking/internal/models"
	"internet-banking/internal/repository"
)

type accountRepo struct {
	v   view
	now func() time.Time
}

func copyAccount(a *models.Account) *models.Account {
	cp := *a
	return &cp
}

func (r *accountRepo) Create(ctx context.Context, account *models.Account) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.byEmail[account.Email]; ok {
			return repository.ErrEmailTaken
		}
		if _, ok := st.byNumber[account.AccountNumber]; ok {
			return ErrDuplicateNumber
		}

		now := r.now()
		account.CreatedAt = now
		account.UpdatedAt = now

		st.accounts[account.ID] = copyAccount(account)
		st.byEmail[account.Email] = account.ID
		st.byNumber[account.AccountNumber] = account.ID
		return nil
	})
}

func (r *accountRepo) get(find func(st *state) (*models.Account, bool)) (*models.Account, error) {
	var out *models.Account
	err := r.v.do(func(st *state) error {
		a, ok := find(st)
		if !ok {
			return repository.ErrAccountNotFound
		}
		out = copyAccount(a)
		return nil
	})
	return out, err
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.get(func(st *state) (*models.Account, bool) {
		a, ok := st.accounts[id]
		return a, ok
	})
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.get(func(st *state) (*models.Account, bool) {
		a, ok := st.accounts[st.byEmail[email]]
		return a, ok
	})
}

func (r *accountRepo) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	return r.get(func(st *state) (*models.Account, bool) {
		a, ok := st.accounts[st.byNumber[accountNumber]]
		return a, ok
	})
}

func (r *accountRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *accountRepo) LockTransferPair(ctx context.Context, senderID, receiverNumber string) (*models.Account, *models.Account, error) {
	var sender, receiver *models.Account
	err := r.v.do(func(st *state) error {
		if a, ok := st.accounts[senderID]; ok {
			sender = copyAccount(a)
		}
		if a, ok := st.accounts[st.byNumber[receiverNumber]]; ok {
			receiver = copyAccount(a)
		}
		return nil
	})
	return sender, receiver, err
}

func (r *accountRepo) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	err := r.v.do(func(st *state) error {
		_, exists = st.byNumber[accountNumber]
		return nil
	})
	return exists, err
}

func (r *accountRepo) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.v.do(func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return repository.ErrAccountNotFound
		}
		next := a.Balance.Add(delta)
		if next.IsNegative() {
			return ErrNegativeBalance
		}
		a.Balance = next
		a.UpdatedAt = r.now()
		balance = next
		return nil
	})
	return balance, err
}

func (r *accountRepo) SetFrozen(ctx context.Context, id string, frozen bool) (*models.Account, error) {
	var out *models.Account
	err := r.v.do(func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return repository.ErrAccountNotFound
		}
		a.IsFrozen = frozen
		a.UpdatedAt = r.now()
		out = copyAccount(a)
		return nil
	})
	return out, err
}

func (r *accountRepo) Delete(ctx context.Context, id string) error {
	return r.v.do(func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return repository.ErrAccountNotFound
		}
		for _, tx := range st.transactions {
			if refersTo(tx.SenderID, id) || refersTo(tx.ReceiverID, id) {
				return ErrStillReferenced
			}
		}
		for _, e := range st.audit {
			if e.AccountID == id {
				return ErrStillReferenced
			}
		}
		delete(st.byEmail, a.Email)
		delete(st.byNumber, a.AccountNumber)
		delete(st.accounts, id)
		return nil
	})
}

func (r *accountRepo) List(ctx context.Context, page models.Page) ([]models.Account, int, error) {
	var (
		out   []models.Account
		total int
	)
	err := r.v.do(func(st *state) error {
		all := make([]models.Account, 0, len(st.accounts))
		for _, a := range st.accounts {
			all = append(all, *a)
		}
		sort.Slice(all, func(i, j int) bool {
			if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].CreatedAt.After(all[j].CreatedAt)
			}
			return all[i].ID < all[j].ID
		})
		total = len(all)
		out = paginate(all, page)
		return nil
	})
	return out, total, err
}

func (r *accountRepo) Stats(ctx context.Context) (*models.SystemStats, error) {
	stats := &models.SystemStats{TotalLiquidity: decimal.Zero}
	err := r.v.do(func(st *state) error {
		now := r.now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		stats.TotalUsers = len(st.accounts)
		stats.TotalTransactions = len(st.transactions)
		for _, a := range st.accounts {
			stats.TotalLiquidity = stats.TotalLiquidity.Add(a.Balance)
			if a.IsFrozen {
				stats.FrozenAccounts++
			}
		}
		for _, tx := range st.transactions {
			if !tx.CreatedAt.Before(startOfDay) {
				stats.TodayTransactions++
			}
		}
		return nil
	})
	return stats, err
}

func refersTo(ref *string, id string) bool {
	return ref != nil && *ref == id
}

func paginate[T any](items []T, page models.Page) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return append([]T(nil), items[start:end]...)
}
