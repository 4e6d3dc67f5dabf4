package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidConfig   = errors.New("billing: invalid configuration")
	ErrRunInProgress   = errors.New("billing: run already in progress")
	ErrInvoiceConflict = errors.New("billing: invoice already exists for period")
)

// Service runs the recurring billing batch over all active paid
// subscriptions.
type Service interface {
	// RunBilling performs one bounded pass. Per-subscription failures are
	// absorbed into the summary's error count; the returned error covers
	// batch-level failures only.
	RunBilling(ctx context.Context) (RunSummary, error)
}
