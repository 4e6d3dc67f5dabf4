// Package payment wraps the hosted-checkout gateway used to collect
// subscription invoices.
package payment

import (
	"context"
	"errors"
)

// LinkRequest describes a single invoice to collect. Amount is in the
// currency's smallest unit (kobo, cents).
type LinkRequest struct {
	Email    string
	Amount   int64
	Currency string
	Metadata map[string]string
}

type Provider interface {
	// CreatePaymentLink returns a hosted payment URL for the request.
	CreatePaymentLink(ctx context.Context, req LinkRequest) (string, error)
}

var ErrInvalidConfig = errors.New("payment provider not configured")

// NoOpProvider never produces a link. Invoices still go out, just without a
// hosted checkout URL.
type NoOpProvider struct{}

func (p *NoOpProvider) CreatePaymentLink(ctx context.Context, req LinkRequest) (string, error) {
	return "", nil
}
