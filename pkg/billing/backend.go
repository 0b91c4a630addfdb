package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Backend is the billing backend contract consumed by the store and the
// lifecycle controller. CurrentSubscription returns (nil, nil) when the user
// has no subscription record at all.
type Backend interface {
	CurrentSubscription(ctx context.Context) (*Subscription, error)
	StartSubscription(ctx context.Context, planID string) (*Subscription, error)
	UpdateSubscription(ctx context.Context, planID string) (*Subscription, error)
	CancelSubscription(ctx context.Context) (*Subscription, error)
}

// TokenFunc supplies the caller's bearer token for a request. The session
// layer owns authentication; this package only forwards its output.
type TokenFunc func(ctx context.Context) string

// HTTPBackend talks to the billing backend over its REST surface.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
	token   TokenFunc
}

// NewHTTPBackend creates an HTTP client for the billing backend.
// token may be nil for unauthenticated (test) use.
func NewHTTPBackend(baseURL string, token TokenFunc) *HTTPBackend {
	return &HTTPBackend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		token:   token,
	}
}

// CurrentSubscription fetches the caller's subscription, nil when none exists.
func (b *HTTPBackend) CurrentSubscription(ctx context.Context) (*Subscription, error) {
	return b.do(ctx, http.MethodGet, "/v1/subscription", nil)
}

// StartSubscription creates a new subscription on the given plan.
func (b *HTTPBackend) StartSubscription(ctx context.Context, planID string) (*Subscription, error) {
	return b.do(ctx, http.MethodPost, "/v1/subscription", StartSubscriptionRequest{PlanID: planID})
}

// UpdateSubscription changes the plan of the existing subscription.
func (b *HTTPBackend) UpdateSubscription(ctx context.Context, planID string) (*Subscription, error) {
	return b.do(ctx, http.MethodPatch, "/v1/subscription", UpdateSubscriptionRequest{PlanID: planID})
}

// CancelSubscription cancels the existing subscription at period end.
func (b *HTTPBackend) CancelSubscription(ctx context.Context) (*Subscription, error) {
	return b.do(ctx, http.MethodPost, "/v1/subscription/cancel", struct{}{})
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, body any) (*Subscription, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.token != nil {
		if token := b.token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("billing backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp.StatusCode, raw)
	}

	var envelope SubscriptionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return envelope.Subscription, nil
}

// decodeAPIError turns a failure response into an APIError, preserving the
// structured body when present so the classifier can map it.
func decodeAPIError(status int, raw []byte) *APIError {
	var envelope ErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		return &APIError{StatusCode: status, Body: *envelope.Error}
	}
	return &APIError{StatusCode: status}
}
