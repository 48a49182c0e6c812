package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrNoAccount          = errors.New("no account for resource")
	ErrInvalidResource    = errors.New("resource could not be resolved")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrInsufficientCredit = errors.New("debit would breach credit limit")
	ErrAccountExists      = errors.New("account already exists for resource")
	ErrLedgerWrite        = errors.New("ledger write failed")
	ErrCreationFailed     = errors.New("account creation failed")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrAlreadySettled     = errors.New("payment already settled")
	ErrInvalidRequest     = errors.New("invalid request")
)
