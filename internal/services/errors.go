package services

import "errors"

// ErrorKind enumerates every business-rule violation a service can report.
type ErrorKind int

const (
	KindInvalidAmount ErrorKind = iota + 1
	KindAmountLimitExceeded
	KindSenderNotFound
	KindSenderFrozen
	KindSelfTransfer
	KindInsufficientBalance
	KindReceiverNotFound
	KindReceiverFrozen
	KindAccountFrozen
	KindNotFound
	KindCannotModifyAdmin
	KindEmailTaken
	KindInvalidCredentials
	KindUnauthorized
	KindForbidden
)

var kindNames = map[ErrorKind]string{
	KindInvalidAmount:       "InvalidAmount",
	KindAmountLimitExceeded: "AmountLimitExceeded",
	KindSenderNotFound:      "SenderNotFound",
	KindSenderFrozen:        "SenderFrozen",
	KindSelfTransfer:        "SelfTransfer",
	KindInsufficientBalance: "InsufficientBalance",
	KindReceiverNotFound:    "ReceiverNotFound",
	KindReceiverFrozen:      "ReceiverFrozen",
	KindAccountFrozen:       "AccountFrozen",
	KindNotFound:            "NotFound",
	KindCannotModifyAdmin:   "CannotModifyAdmin",
	KindEmailTaken:          "EmailTaken",
	KindInvalidCredentials:  "InvalidCredentials",
	KindUnauthorized:        "Unauthorized",
	KindForbidden:           "Forbidden",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Error is an expected, user-facing failure. It never wraps infrastructure
// errors; those travel as plain wrapped errors and surface as opaque 500s.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrInvalidAmount       = newError(KindInvalidAmount, "amount must be positive with at most 2 decimal places")
	ErrAmountLimitExceeded = newError(KindAmountLimitExceeded, "amount exceeds the allowed limit")
	ErrSenderNotFound      = newError(KindSenderNotFound, "sender account not found")
	ErrSenderFrozen        = newError(KindSenderFrozen, "your account is frozen")
	ErrSelfTransfer        = newError(KindSelfTransfer, "cannot transfer to your own account")
	ErrInsufficientBalance = newError(KindInsufficientBalance, "insufficient balance")
	ErrReceiverNotFound    = newError(KindReceiverNotFound, "receiver account not found")
	ErrReceiverFrozen      = newError(KindReceiverFrozen, "receiver account is frozen")
	ErrAccountFrozen       = newError(KindAccountFrozen, "account is frozen, contact admin")
	ErrNotFound            = newError(KindNotFound, "user not found")
	ErrCannotModifyAdmin   = newError(KindCannotModifyAdmin, "cannot modify admin users")
	ErrEmailTaken          = newError(KindEmailTaken, "email already registered")
	ErrInvalidCredentials  = newError(KindInvalidCredentials, "invalid credentials")
	ErrUnauthorized        = newError(KindUnauthorized, "invalid or expired token")
	ErrForbidden           = newError(KindForbidden, "access denied, admin only")
)

// KindOf extracts the kind of a service error; ok is false for anything else.
func KindOf(err error) (ErrorKind, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind, true
	}
	return 0, false
}
