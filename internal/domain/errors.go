package domain

import "errors"

var (
	// ErrBudgetExceeded signals that the daily spend budget is exhausted
	// and the ledger refused a new billable call.
	ErrBudgetExceeded = errors.New("daily budget exceeded")
	// ErrProviderError signals a places provider failure.
	ErrProviderError = errors.New("places provider error")
	// ErrUnknownCategory signals an unregistered request category.
	ErrUnknownCategory = errors.New("unknown request category")
	// ErrInvalidRequest signals a malformed lookup request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)
