package ledger

import "errors"

// Validation errors. Rejected before any mutation.
var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrSelfTransfer      = errors.New("cannot transfer to the same account")
	ErrInvalidTarget     = errors.New("target account cannot receive transfers")
)

// Business-rule rejections. No mutation occurs.
var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInsufficientExperience = errors.New("insufficient experience")
	ErrExchangeTooSmall       = errors.New("exchange amount converts to zero credits at the current rate")
)
