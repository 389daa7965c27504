package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"internet-banking/internal/models"
	"internet-banking/internal/utils"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already registered")
)

type AccountRepo interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Account, error)
	// LockTransferPair locks the sender (by id) and the receiver (by account
	// number) in a single statement, in id order, so opposing transfers cannot
	// deadlock. Missing rows come back nil without an error.
	LockTransferPair(ctx context.Context, senderID, receiverNumber string) (sender, receiver *models.Account, err error)
	AccountNumberExists(ctx context.Context, accountNumber string) (bool, error)
	AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error)
	SetFrozen(ctx context.Context, id string, frozen bool) (*models.Account, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page models.Page) ([]models.Account, int, error)
	Stats(ctx context.Context) (*models.SystemStats, error)
}

type TransactionRepo interface {
	Create(ctx context.Context, tx *models.Transaction) error
	// ListForAccount returns the account's own view of the ledger: DEBIT rows
	// where it is the sender and CREDIT rows where it is the receiver.
	ListForAccount(ctx context.Context, accountID string, page models.Page) ([]models.Transaction, int, error)
	Recent(ctx context.Context, limit int) ([]models.Transaction, error)
	DeleteForAccount(ctx context.Context, accountID string) (int64, error)
}

type AuditRepo interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
	ListByAccount(ctx context.Context, accountID string, page models.Page) ([]models.AuditEntry, int, error)
	List(ctx context.Context, page models.Page) ([]models.AuditEntry, int, error)
	DeleteForAccount(ctx context.Context, accountID string) (int64, error)
}

// Tx is the set of repositories bound to one atomic unit.
type Tx interface {
	Accounts() AccountRepo
	Transactions() TransactionRepo
	Audit() AuditRepo
}

// Store is the ledger. Outside WithinTx the repositories run in autocommit mode.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	pool *pgxpool.Pool
	repos
}

type repos struct {
	accounts     *AccountRepository
	transactions *TransactionRepository
	audit        *AuditRepository
}

func newRepos(db DBTX) repos {
	return repos{
		accounts:     NewAccountRepository(db),
		transactions: NewTransactionRepository(db),
		audit:        NewAuditRepository(db),
	}
}

func (r repos) Accounts() AccountRepo         { return r.accounts }
func (r repos) Transactions() TransactionRepo { return r.transactions }
func (r repos) Audit() AuditRepo              { return r.audit }

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	utils.LogSuccess("Store", "PostgreSQL ledger store initialized")
	return &PostgresStore{pool: pool, repos: newRepos(pool)}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// WithinTx runs fn in a READ COMMITTED transaction. Rows that are modified are
// locked with SELECT ... FOR UPDATE by the repositories, which gives per-row
// serialization of balance checks and updates.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newRepos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return false
}
