package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"internet-banking/internal/models"
)

type AuditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_logs (id, account_id, action, metadata, ip_address)
		VALUES ($1, $2, $3, $4::jsonb, $5)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		entry.ID,
		entry.AccountID,
		entry.Action,
		string(entry.Metadata),
		entry.IPAddress,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("create audit entry: %w", err)
	}
	return nil
}

func scanAuditEntries(rows pgx.Rows, withUser bool) ([]models.AuditEntry, error) {
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var (
			entry    models.AuditEntry
			metadata []byte
		)
		dest := []any{&entry.ID, &entry.AccountID, &entry.Action, &metadata, &entry.IPAddress, &entry.CreatedAt}

		var user models.PartySummary
		if withUser {
			dest = append(dest, &user.Name, &user.Email, &user.AccountNumber)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Metadata = metadata
		if withUser {
			entry.User = &user
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read audit entries: %w", err)
	}
	return entries, nil
}

func (r *AuditRepository) ListByAccount(ctx context.Context, accountID string, page models.Page) ([]models.AuditEntry, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs WHERE account_id = $1", accountID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, action, metadata, ip_address, created_at
		FROM audit_logs
		WHERE account_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, accountID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}

	entries, err := scanAuditEntries(rows, false)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *AuditRepository) List(ctx context.Context, page models.Page) ([]models.AuditEntry, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT l.id, l.account_id, l.action, l.metadata, l.ip_address, l.created_at,
		       a.name, a.email, a.account_number
		FROM audit_logs l
		JOIN accounts a ON a.id = l.account_id
		ORDER BY l.created_at DESC, l.id
		LIMIT $1 OFFSET $2
	`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}

	entries, err := scanAuditEntries(rows, true)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *AuditRepository) DeleteForAccount(ctx context.Context, accountID string) (int64, error) {
	result, err := r.db.Exec(ctx, "DELETE FROM audit_logs WHERE account_id = $1", accountID)
	if err != nil {
		return 0, fmt.Errorf("delete audit entries: %w", err)
	}
	return result.RowsAffected(), nil
}
