package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"internet-banking/internal/models"
)

type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionSelect = `
	SELECT t.id, t.amount, t.type, t.sender_id, t.receiver_id, t.status,
	       t.description, t.created_at,
	       s.name, s.account_number, r.name, r.account_number
	FROM transactions t
	LEFT JOIN accounts s ON s.id = t.sender_id
	LEFT JOIN accounts r ON r.id = t.receiver_id
`

// ownView selects the rows an account sees as its own history: the DEBIT side
// of what it sent and the CREDIT side of what it received.
const ownView = `(t.sender_id = $1 AND t.type = 'DEBIT') OR (t.receiver_id = $1 AND t.type = 'CREDIT')`

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, amount, type, sender_id, receiver_id, status, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		tx.ID,
		tx.Amount,
		tx.Type,
		tx.SenderID,
		tx.ReceiverID,
		tx.Status,
		tx.Description,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func scanTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var (
			tx                           models.Transaction
			senderName, senderNumber     *string
			receiverName, receiverNumber *string
		)
		err := rows.Scan(
			&tx.ID,
			&tx.Amount,
			&tx.Type,
			&tx.SenderID,
			&tx.ReceiverID,
			&tx.Status,
			&tx.Description,
			&tx.CreatedAt,
			&senderName,
			&senderNumber,
			&receiverName,
			&receiverNumber,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if senderName != nil {
			tx.Sender = &models.PartySummary{Name: *senderName, AccountNumber: *senderNumber}
		}
		if receiverName != nil {
			tx.Receiver = &models.PartySummary{Name: *receiverName, AccountNumber: *receiverNumber}
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	return transactions, nil
}

func (r *TransactionRepository) ListForAccount(ctx context.Context, accountID string, page models.Page) ([]models.Transaction, int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions t WHERE `+ownView, accountID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	rows, err := r.db.Query(ctx, transactionSelect+`
		WHERE `+ownView+`
		ORDER BY t.created_at DESC, t.id
		LIMIT $2 OFFSET $3
	`, accountID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}

	transactions, err := scanTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

func (r *TransactionRepository) Recent(ctx context.Context, limit int) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx, transactionSelect+`
		ORDER BY t.created_at DESC, t.id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return scanTransactions(rows)
}

func (r *TransactionRepository) DeleteForAccount(ctx context.Context, accountID string) (int64, error) {
	result, err := r.db.Exec(ctx,
		"DELETE FROM transactions WHERE sender_id = $1 OR receiver_id = $1",
		accountID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete transactions: %w", err)
	}
	return result.RowsAffected(), nil
}
