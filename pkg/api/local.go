package api

import (
	"context"
	"net/http"

	"github.com/lexportal/lexportal/pkg/auth"
	"github.com/lexportal/lexportal/pkg/billing"
)

// LocalBackend adapts the in-process lifecycle rules to the billing.Backend
// port, so entitlement stores running inside this deployment skip the HTTP
// round-trip. The acting user comes from the request session on the context.
type LocalBackend struct {
	lifecycle *Lifecycle
}

// NewLocalBackend wraps the lifecycle rule layer as a billing backend.
func NewLocalBackend(lifecycle *Lifecycle) *LocalBackend {
	return &LocalBackend{lifecycle: lifecycle}
}

func (b *LocalBackend) CurrentSubscription(ctx context.Context) (*billing.Subscription, error) {
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	return b.lifecycle.Current(ctx, userID)
}

func (b *LocalBackend) StartSubscription(ctx context.Context, planID string) (*billing.Subscription, error) {
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	return b.lifecycle.Start(ctx, userID, planID)
}

func (b *LocalBackend) UpdateSubscription(ctx context.Context, planID string) (*billing.Subscription, error) {
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	return b.lifecycle.ChangePlan(ctx, userID, planID)
}

func (b *LocalBackend) CancelSubscription(ctx context.Context) (*billing.Subscription, error) {
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	return b.lifecycle.Cancel(ctx, userID)
}

func sessionUser(ctx context.Context) (string, error) {
	if session := auth.FromContext(ctx); session != nil {
		return session.UserID, nil
	}
	return "", billing.NewAPIError(http.StatusUnauthorized, billing.KindUnknown, "no session on context")
}
