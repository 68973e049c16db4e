package transaction

import "errors"

var (
	// ErrTransactionNotFound is returned when a transaction cannot be found
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidTransactionID is returned when the transaction ID is invalid
	ErrInvalidTransactionID = errors.New("invalid transaction ID")

	// ErrInvalidUserID is returned when the user ID is invalid
	ErrInvalidUserID = errors.New("invalid user ID")

	// ErrNegativeAmount is returned when transaction amount is negative
	ErrNegativeAmount = errors.New("transaction amount cannot be negative")

	// ErrZeroAmount is returned when transaction amount is zero
	ErrZeroAmount = errors.New("transaction amount cannot be zero")

	// ErrMissingCurrency is returned when currency is not specified
	ErrMissingCurrency = errors.New("transaction currency is required")

	ErrMissingTimestamp = errors.New("transaction timestamp is required")

	// ErrInvalidStatusTransition is returned when an invalid status change is attempted
	ErrInvalidStatusTransition = errors.New("invalid transaction status transition")

	// ErrTransactionAlreadyScored is returned when a scored transaction is scored again
	ErrTransactionAlreadyScored = errors.New("transaction has already been scored")
)
