package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"internet-banking/internal/models"
	"internet-banking/internal/utils"
)

const accountColumns = `id, name, email, password_hash, account_number, ifsc_code,
	balance, role, is_frozen, created_at, updated_at`

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.AccountNumber,
		&account.IFSCCode,
		&account.Balance,
		&account.Role,
		&account.IsFrozen,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) getOne(ctx context.Context, op, query string, args ...any) (*models.Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, name, email, password_hash, account_number, ifsc_code, balance, role, is_frozen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	utils.LogDB("CREATE ACCOUNT", fmt.Sprintf("account number %s", account.AccountNumber))

	err := r.db.QueryRow(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.AccountNumber,
		account.IFSCCode,
		account.Balance,
		account.Role,
		account.IsFrozen,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "accounts_email_key") {
			return ErrEmailTaken
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, "get account",
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, "get account by email",
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	return r.getOne(ctx, "get account by number",
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, accountNumber)
}

func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, "lock account",
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
}

func (r *AccountRepository) LockTransferPair(ctx context.Context, senderID, receiverNumber string) (*models.Account, *models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1 OR account_number = $2
		ORDER BY id
		FOR UPDATE
	`

	rows, err := r.db.Query(ctx, query, senderID, receiverNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("lock transfer accounts: %w", err)
	}
	defer rows.Close()

	var sender, receiver *models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("scan transfer account: %w", err)
		}
		if account.ID == senderID {
			sender = account
		}
		if account.AccountNumber == receiverNumber {
			receiver = account
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("lock transfer accounts: %w", err)
	}

	return sender, receiver, nil
}

func (r *AccountRepository) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM accounts WHERE account_number = $1)",
		accountNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account number: %w", err)
	}
	return exists, nil
}

// AdjustBalance applies delta and returns the resulting balance. The balance
// check constraint rejects a negative result.
func (r *AccountRepository) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx,
		"UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2 RETURNING balance",
		delta, id,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrAccountNotFound
		}
		return decimal.Zero, fmt.Errorf("adjust balance: %w", err)
	}
	return balance, nil
}

func (r *AccountRepository) SetFrozen(ctx context.Context, id string, frozen bool) (*models.Account, error) {
	return r.getOne(ctx, "set frozen", `
		UPDATE accounts SET is_frozen = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+accountColumns, frozen, id)
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, "DELETE FROM accounts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context, page models.Page) ([]models.Account, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM accounts").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]models.Account, 0, page.Limit)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}

	return accounts, total, nil
}

func (r *AccountRepository) Stats(ctx context.Context) (*models.SystemStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM accounts),
			(SELECT COUNT(*) FROM transactions),
			(SELECT COALESCE(SUM(balance), 0) FROM accounts),
			(SELECT COUNT(*) FROM accounts WHERE is_frozen),
			(SELECT COUNT(*) FROM transactions WHERE created_at >= date_trunc('day', NOW()))
	`

	var stats models.SystemStats
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.TotalTransactions,
		&stats.TotalLiquidity,
		&stats.FrozenAccounts,
		&stats.TodayTransactions,
	)
	if err != nil {
		return nil, fmt.Errorf("system stats: %w", err)
	}
	return &stats, nil
}
