package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidPayURL      = errors.New("payment url is missing or malformed")
	ErrOpenNotSupported   = errors.New("device cannot open payment url")
	ErrSessionClosed      = errors.New("payment session is closed")
	ErrTerminalState      = errors.New("payment session already resolved")
	ErrCheckInProgress    = errors.New("payment status check in progress")
	ErrVerificationFailed = errors.New("payment verification failed")
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrNavigationFailed   = errors.New("all navigation delivery paths failed")
)
