package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"internet-banking/internal/cache"
	"internet-banking/internal/models"
	"internet-banking/internal/repository"
	"internet-banking/internal/utils"
	"internet-banking/internal/worker"
)

// Limits caps single deposit and withdrawal amounts. A zero value disables
// the corresponding check.
type Limits struct {
	MaxDeposit  decimal.Decimal
	MaxWithdraw decimal.Decimal
}

type TransactionService struct {
	store      repository.Store
	audit      *AuditService
	limits     Limits
	cache      *cache.RedisCache
	workerPool *worker.WorkerPool
}

func NewTransactionService(store repository.Store, audit *AuditService, limits Limits) *TransactionService {
	return &TransactionService{
		store:  store,
		audit:  audit,
		limits: limits,
	}
}

func NewTransactionServiceWithCache(store repository.Store, audit *AuditService, limits Limits, cache *cache.RedisCache) *TransactionService {
	s := NewTransactionService(store, audit, limits)
	s.cache = cache
	return s
}

func (s *TransactionService) SetWorkerPool(pool *worker.WorkerPool) {
	s.workerPool = pool
	utils.LogSuccess("TransactionService", "worker pool attached")
}

func checkAmount(amount, ceiling decimal.Decimal) error {
	if !utils.IsValidAmount(amount) {
		return ErrInvalidAmount
	}
	if ceiling.IsPositive() && amount.GreaterThan(ceiling) {
		return ErrAmountLimitExceeded
	}
	return nil
}

func newTransaction(amount decimal.Decimal, kind models.TransactionType, senderID, receiverID *string, description string) *models.Transaction {
	return &models.Transaction{
		ID:          uuid.NewString(),
		Amount:      amount,
		Type:        kind,
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Status:      models.TransactionSuccess,
		Description: description,
	}
}

func orDefault(description, fallback string) string {
	if description == "" {
		return fallback
	}
	return description
}

// lockOwnAccount loads the acting account under a row lock and rejects it when
// it is gone or frozen.
func lockOwnAccount(ctx context.Context, tx repository.Tx, accountID string) (*models.Account, error) {
	if _, err := uuid.Parse(accountID); err != nil {
		return nil, ErrNotFound
	}
	account, err := tx.Accounts().GetByIDForUpdate(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if account.IsFrozen {
		return nil, ErrAccountFrozen
	}
	return account, nil
}

func (s *TransactionService) Deposit(ctx context.Context, actor Actor, req models.DepositRequest) (*models.BalanceResult, error) {
	if err := checkAmount(req.Amount, s.limits.MaxDeposit); err != nil {
		utils.LogWarning("TransactionService", "deposit by %s rejected: %v", actor.AccountID, err)
		return nil, err
	}
	utils.LogInfo("TransactionService", "deposit of %s by %s", utils.FormatAmount(req.Amount), actor.AccountID)

	var result models.BalanceResult
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		account, err := lockOwnAccount(ctx, tx, actor.AccountID)
		if err != nil {
			return err
		}

		balance, err := tx.Accounts().AdjustBalance(ctx, account.ID, req.Amount)
		if err != nil {
			return err
		}

		record := newTransaction(req.Amount, models.TransactionCredit, nil, &account.ID, orDefault(req.Description, "Deposit"))
		if err := tx.Transactions().Create(ctx, record); err != nil {
			return err
		}

		if _, err := s.audit.Record(ctx, tx.Audit(), account.ID, actor.IP, models.AuditDeposit, map[string]any{
			"amount":        req.Amount,
			"transactionId": record.ID,
		}); err != nil {
			return err
		}

		result = models.BalanceResult{Balance: balance, Transaction: record}
		return nil
	})
	if err != nil {
		s.logFailure("deposit", err)
		return nil, err
	}

	invalidateAccountsAsync(s.cache, s.workerPool, "TransactionService", result.Transaction.ID, actor.AccountID)

	utils.LogSuccess("TransactionService", "deposit %s completed, balance %s", result.Transaction.ID, utils.FormatAmount(result.Balance))
	return &result, nil
}

func (s *TransactionService) Withdraw(ctx context.Context, actor Actor, req models.WithdrawRequest) (*models.BalanceResult, error) {
	if err := checkAmount(req.Amount, s.limits.MaxWithdraw); err != nil {
		utils.LogWarning("TransactionService", "withdrawal by %s rejected: %v", actor.AccountID, err)
		return nil, err
	}
	utils.LogInfo("TransactionService", "withdrawal of %s by %s", utils.FormatAmount(req.Amount), actor.AccountID)

	var result models.BalanceResult
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		account, err := lockOwnAccount(ctx, tx, actor.AccountID)
		if err != nil {
			return err
		}
		if account.Balance.LessThan(req.Amount) {
			return ErrInsufficientBalance
		}

		balance, err := tx.Accounts().AdjustBalance(ctx, account.ID, req.Amount.Neg())
		if err != nil {
			return err
		}

		record := newTransaction(req.Amount, models.TransactionDebit, &account.ID, nil, orDefault(req.Description, "Withdrawal"))
		if err := tx.Transactions().Create(ctx, record); err != nil {
			return err
		}

		if _, err := s.audit.Record(ctx, tx.Audit(), account.ID, actor.IP, models.AuditWithdraw, map[string]any{
			"amount":        req.Amount,
			"transactionId": record.ID,
		}); err != nil {
			return err
		}

		result = models.BalanceResult{Balance: balance, Transaction: record}
		return nil
	})
	if err != nil {
		s.logFailure("withdrawal", err)
		return nil, err
	}

	invalidateAccountsAsync(s.cache, s.workerPool, "TransactionService", result.Transaction.ID, actor.AccountID)

	utils.LogSuccess("TransactionService", "withdrawal %s completed, balance %s", result.Transaction.ID, utils.FormatAmount(result.Balance))
	return &result, nil
}

// Transfer moves funds between two accounts in one atomic unit. Checks run in
// a fixed order and the first failing one is reported.
func (s *TransactionService) Transfer(ctx context.Context, actor Actor, req models.TransferRequest) (*models.TransferResult, error) {
	if !utils.IsValidAmount(req.Amount) {
		utils.LogWarning("TransactionService", "transfer by %s rejected: %v", actor.AccountID, ErrInvalidAmount)
		return nil, ErrInvalidAmount
	}
	// Sender ids are uuids in every store; anything else cannot exist.
	if _, err := uuid.Parse(actor.AccountID); err != nil {
		utils.LogWarning("TransactionService", "transfer rejected: %v", ErrSenderNotFound)
		return nil, ErrSenderNotFound
	}
	utils.LogInfo("TransactionService", "transfer of %s from %s to %s",
		utils.FormatAmount(req.Amount), actor.AccountID, req.ReceiverAccountNumber)

	var result models.TransferResult
	var receiverID string
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		sender, receiver, err := tx.Accounts().LockTransferPair(ctx, actor.AccountID, req.ReceiverAccountNumber)
		if err != nil {
			return err
		}

		switch {
		case sender == nil:
			return ErrSenderNotFound
		case sender.IsFrozen:
			return ErrSenderFrozen
		case sender.AccountNumber == req.ReceiverAccountNumber:
			return ErrSelfTransfer
		case sender.Balance.LessThan(req.Amount):
			return ErrInsufficientBalance
		case receiver == nil:
			return ErrReceiverNotFound
		case receiver.IsFrozen:
			return ErrReceiverFrozen
		}

		balance, err := tx.Accounts().AdjustBalance(ctx, sender.ID, req.Amount.Neg())
		if err != nil {
			return err
		}
		if _, err := tx.Accounts().AdjustBalance(ctx, receiver.ID, req.Amount); err != nil {
			return err
		}

		debit := newTransaction(req.Amount, models.TransactionDebit, &sender.ID, &receiver.ID,
			orDefault(req.Description, "Transfer to "+receiver.AccountNumber))
		credit := newTransaction(req.Amount, models.TransactionCredit, &sender.ID, &receiver.ID,
			orDefault(req.Description, "Transfer from "+sender.AccountNumber))
		for _, record := range []*models.Transaction{debit, credit} {
			if err := tx.Transactions().Create(ctx, record); err != nil {
				return err
			}
		}

		if _, err := s.audit.Record(ctx, tx.Audit(), sender.ID, actor.IP, models.AuditTransferSent, map[string]any{
			"amount":                req.Amount,
			"receiverAccountNumber": receiver.AccountNumber,
			"debitTransactionId":    debit.ID,
		}); err != nil {
			return err
		}
		if _, err := s.audit.Record(ctx, tx.Audit(), receiver.ID, actor.IP, models.AuditTransferReceived, map[string]any{
			"amount":              req.Amount,
			"senderAccountNumber": sender.AccountNumber,
			"creditTransactionId": credit.ID,
		}); err != nil {
			return err
		}

		receiverID = receiver.ID
		result = models.TransferResult{SenderBalance: balance, Debit: debit, Credit: credit}
		return nil
	})
	if err != nil {
		s.logFailure("transfer", err)
		return nil, err
	}

	invalidateAccountsAsync(s.cache, s.workerPool, "TransactionService", result.Debit.ID, actor.AccountID, receiverID)

	utils.LogSuccess("TransactionService", "transfer %s completed, sender balance %s", result.Debit.ID, utils.FormatAmount(result.SenderBalance))
	return &result, nil
}

func (s *TransactionService) logFailure(op string, err error) {
	if kind, ok := KindOf(err); ok {
		utils.LogWarning("TransactionService", "%s rejected: %s", op, kind)
		return
	}
	utils.LogError("TransactionService", fmt.Sprintf("%s failed", op), err)
}
