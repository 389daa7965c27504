// Package memory is an in-process implementation of repository.Store. Each
// WithinTx call works on a private copy of the ledger that replaces the shared
// one only on success, so a failed unit leaves no trace.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"internet-banking/internal/models"
	"internet-banking/internal/repository"
)

var (
	ErrNegativeBalance = errors.New("balance would become negative")
	ErrStillReferenced = errors.New("account is still referenced by ledger rows")
	ErrDuplicateNumber = errors.New("account number already exists")
)

type state struct {
	accounts     map[string]*models.Account
	byEmail      map[string]string
	byNumber     map[string]string
	transactions []models.Transaction
	audit        []models.AuditEntry
}

func newState() *state {
	return &state{
		accounts: make(map[string]*models.Account),
		byEmail:  make(map[string]string),
		byNumber: make(map[string]string),
	}
}

func (st *state) clone() *state {
	c := &state{
		accounts:     make(map[string]*models.Account, len(st.accounts)),
		byEmail:      make(map[string]string, len(st.byEmail)),
		byNumber:     make(map[string]string, len(st.byNumber)),
		transactions: append([]models.Transaction(nil), st.transactions...),
		audit:        append([]models.AuditEntry(nil), st.audit...),
	}
	for id, a := range st.accounts {
		cp := *a
		c.accounts[id] = &cp
	}
	for k, v := range st.byEmail {
		c.byEmail[k] = v
	}
	for k, v := range st.byNumber {
		c.byNumber[k] = v
	}
	return c
}

type view interface {
	do(fn func(st *state) error) error
}

type sharedView struct{ s *Store }

func (v sharedView) do(fn func(st *state) error) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.st)
}

type txView struct{ st *state }

func (v txView) do(fn func(st *state) error) error {
	return fn(v.st)
}

// Store holds one mutex for the whole ledger: autocommit calls and atomic
// units are fully serialized. Repositories obtained from the Store must not
// be used inside a WithinTx callback; use the Tx passed to it.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{st: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type repos struct {
	accounts     *accountRepo
	transactions *transactionRepo
	audit        *auditRepo
}

func (s *Store) repos(v view) repos {
	return repos{
		accounts:     &accountRepo{v: v, now: s.now},
		transactions: &transactionRepo{v: v, now: s.now},
		audit:        &auditRepo{v: v, now: s.now},
	}
}

func (r repos) Accounts() repository.AccountRepo         { return r.accounts }
func (r repos) Transactions() repository.TransactionRepo { return r.transactions }
func (r repos) Audit() repository.AuditRepo              { return r.audit }

func (s *Store) Accounts() repository.AccountRepo {
	return s.repos(sharedView{s}).Accounts()
}

func (s *Store) Transactions() repository.TransactionRepo {
	return s.repos(sharedView{s}).Transactions()
}

func (s *Store) Audit() repository.AuditRepo {
	return s.repos(sharedView{s}).Audit()
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.st.clone()
	if err := fn(s.repos(txView{working})); err != nil {
		return err
	}

	s.st = working
	return nil
}
