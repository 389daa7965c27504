package repository

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"internet-banking/internal/utils"
)

const (
	AccountNumberLength      = 12
	maxAccountNumberAttempts = 10
)

var ErrAccountNumberExhausted = errors.New("could not generate a unique account number")

var accountNumberSpace = big.NewInt(1_000_000_000_000) // 10^12

// GenerateAccountNumber draws random 12-digit numbers until one is not taken.
func GenerateAccountNumber(ctx context.Context, accounts AccountRepo) (string, error) {
	for attempt := 0; attempt < maxAccountNumberAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, accountNumberSpace)
		if err != nil {
			return "", fmt.Errorf("generate random number: %w", err)
		}

		accountNumber := fmt.Sprintf("%012d", n.Int64())

		exists, err := accounts.AccountNumberExists(ctx, accountNumber)
		if err != nil {
			return "", err
		}
		if !exists {
			return accountNumber, nil
		}

		utils.LogWarning("AccountRepo", "account number collision %s, attempt %d/%d", accountNumber, attempt+1, maxAccountNumberAttempts)
	}

	return "", ErrAccountNumberExhausted
}
