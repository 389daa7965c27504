package memory

import (
	"context"
	"time"

	"internet-banking/internal/models"
)

type transactionRepo struct {
	v   view
	now func() time.Time
}

func (r *transactionRepo) Create(ctx context.Context, tx *models.Transaction) error {
	return r.v.do(func(st *state) error {
		tx.CreatedAt = r.now()
		st.transactions = append(st.transactions, *tx)
		return nil
	})
}

func withParties(st *state, tx models.Transaction) models.Transaction {
	if tx.SenderID != nil {
		if a, ok := st.accounts[*tx.SenderID]; ok {
			tx.Sender = &models.PartySummary{Name: a.Name, AccountNumber: a.AccountNumber}
		}
	}
	if tx.ReceiverID != nil {
		if a, ok := st.accounts[*tx.ReceiverID]; ok {
			tx.Receiver = &models.PartySummary{Name: a.Name, AccountNumber: a.AccountNumber}
		}
	}
	return tx
}

// newestFirst walks rows in reverse insertion order, which matches
// created_at DESC for a monotonic clock.
func newestFirst[T any](items []T, keep func(T) bool) []T {
	out := []T{}
	for i := len(items) - 1; i >= 0; i-- {
		if keep(items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

func (r *transactionRepo) ListForAccount(ctx context.Context, accountID string, page models.Page) ([]models.Transaction, int, error) {
	var (
		out   []models.Transaction
		total int
	)
	err := r.v.do(func(st *state) error {
		own := newestFirst(st.transactions, func(tx models.Transaction) bool {
			return (tx.Type == models.TransactionDebit && refersTo(tx.SenderID, accountID)) ||
				(tx.Type == models.TransactionCredit && refersTo(tx.ReceiverID, accountID))
		})
		total = len(own)
		out = paginate(own, page)
		for i := range out {
			out[i] = withParties(st, out[i])
		}
		return nil
	})
	return out, total, err
}

func (r *transactionRepo) Recent(ctx context.Context, limit int) ([]models.Transaction, error) {
	var out []models.Transaction
	err := r.v.do(func(st *state) error {
		all := newestFirst(st.transactions, func(models.Transaction) bool { return true })
		out = paginate(all, models.Page{Page: 1, Limit: limit})
		for i := range out {
			out[i] = withParties(st, out[i])
		}
		return nil
	})
	return out, err
}

func (r *transactionRepo) DeleteForAccount(ctx context.Context, accountID string) (int64, error) {
	var removed int64
	err := r.v.do(func(st *state) error {
		kept := st.transactions[:0:0]
		for _, tx := range st.transactions {
			if refersTo(tx.SenderID, accountID) || refersTo(tx.ReceiverID, accountID) {
				removed++
				continue
			}
			kept = append(kept, tx)
		}
		st.transactions = kept
		return nil
	})
	return removed, err
}

type auditRepo struct {
	v   view
	now func() time.Time
}

func (r *auditRepo) Create(ctx context.Context, entry *models.AuditEntry) error {
	return r.v.do(func(st *state) error {
		entry.CreatedAt = r.now()
		cp := *entry
		cp.Metadata = append([]byte(nil), entry.Metadata...)
		st.audit = append(st.audit, cp)
		return nil
	})
}

func (r *auditRepo) ListByAccount(ctx context.Context, accountID string, page models.Page) ([]models.AuditEntry, int, error) {
	var (
		out   []models.AuditEntry
		total int
	)
	err := r.v.do(func(st *state) error {
		own := newestFirst(st.audit, func(e models.AuditEntry) bool { return e.AccountID == accountID })
		total = len(own)
		out = paginate(own, page)
		return nil
	})
	return out, total, err
}

func (r *auditRepo) List(ctx context.Context, page models.Page) ([]models.AuditEntry, int, error) {
	var (
		out   []models.AuditEntry
		total int
	)
	err := r.v.do(func(st *state) error {
		all := newestFirst(st.audit, func(models.AuditEntry) bool { return true })
		total = len(all)
		out = paginate(all, page)
		for i := range out {
			if a, ok := st.accounts[out[i].AccountID]; ok {
				out[i].User = &models.PartySummary{Name: a.Name, Email: a.Email, AccountNumber: a.AccountNumber}
			}
		}
		return nil
	})
	return out, total, err
}

func (r *auditRepo) DeleteForAccount(ctx context.Context, accountID string) (int64, error) {
	var removed int64
	err := r.v.do(func(st *state) error {
		kept := st.audit[:0:0]
		for _, e := range st.audit {
			if e.AccountID == accountID {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		st.audit = kept
		return nil
	})
	return removed, err
}
