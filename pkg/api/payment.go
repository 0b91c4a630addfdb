package api

import (
	"context"
	"fmt"

	"github.com/lexportal/lexportal/pkg/billing"
	"github.com/lexportal/lexportal/pkg/plans"
)

// PaymentReceipt is the authorizer's answer for a successful charge.
type PaymentReceipt struct {
	// CardLast4 is the masked payment instrument reference kept for display.
	CardLast4 string
}

// PaymentAuthorizer is the port to the opaque payment processor. It is only
// consulted for plans billed from day one; trial starts defer the first
// charge to renewal.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, userID string, plan plans.PlanDefinition) (*PaymentReceipt, error)
}

// PaymentDeclinedError is a typed processor failure. Kind distinguishes a
// card-level decline from a generic payment failure or a processor fault.
type PaymentDeclinedError struct {
	Kind    billing.ErrorKind
	Message string
	Code    int
}

func (e *PaymentDeclinedError) Error() string {
	return fmt.Sprintf("payment declined (%s): %s", e.Kind, e.Message)
}

// NullAuthorizer approves every charge with no processor round-trip.
// Used in development deployments and tests.
type NullAuthorizer struct{}

func (NullAuthorizer) Authorize(ctx context.Context, userID string, plan plans.PlanDefinition) (*PaymentReceipt, error) {
	return &PaymentReceipt{CardLast4: "4242"}, nil
}
