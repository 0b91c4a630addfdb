package billing

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure categories the portal understands.
// Adding a backend error type means adding a constant here plus entries in
// kindByType and messageByKind; the exhaustiveness test keeps the three in sync.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindPaymentFailed
	KindCardDeclined
	KindAlreadySubscribed
	KindTrialEnded
	KindSubscriptionNotFound
	KindProviderError
	KindInvalidPlan
	KindServiceUnavailable
)

// Wire values for the structured error "type" field.
const (
	TypePaymentFailed        = "payment_failed"
	TypeCardDeclined         = "card_declined"
	TypeAlreadySubscribed    = "already_subscribed"
	TypeTrialEnded           = "trial_ended"
	TypeSubscriptionNotFound = "subscription_not_found"
	TypeProviderError        = "provider_error"
	TypeInvalidPlan          = "invalid_plan"
	TypeServiceUnavailable   = "service_unavailable"
)

func (k ErrorKind) String() string {
	switch k {
	case KindPaymentFailed:
		return TypePaymentFailed
	case KindCardDeclined:
		return TypeCardDeclined
	case KindAlreadySubscribed:
		return TypeAlreadySubscribed
	case KindTrialEnded:
		return TypeTrialEnded
	case KindSubscriptionNotFound:
		return TypeSubscriptionNotFound
	case KindProviderError:
		return TypeProviderError
	case KindInvalidPlan:
		return TypeInvalidPlan
	case KindServiceUnavailable:
		return TypeServiceUnavailable
	default:
		return "unknown"
	}
}

// kindByType maps recognized wire types 1:1 to kinds.
var kindByType = map[string]ErrorKind{
	TypePaymentFailed:        KindPaymentFailed,
	TypeCardDeclined:         KindCardDeclined,
	TypeAlreadySubscribed:    KindAlreadySubscribed,
	TypeTrialEnded:           KindTrialEnded,
	TypeSubscriptionNotFound: KindSubscriptionNotFound,
	TypeProviderError:        KindProviderError,
	TypeInvalidPlan:          KindInvalidPlan,
	TypeServiceUnavailable:   KindServiceUnavailable,
}

// Message is the user-facing classification result. For recognized kinds,
// Title and Description are localization keys resolved by the host
// application; for verbatim fallbacks Description carries the raw upstream
// text. Raw backend payloads are never shown without passing through here.
type Message struct {
	Kind        ErrorKind `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

const (
	genericTitleKey       = "billing.error.generic.title"
	genericDescriptionKey = "billing.error.generic.description"
)

// messageByKind is the canned message table for recognized kinds.
var messageByKind = map[ErrorKind]Message{
	KindPaymentFailed:        {KindPaymentFailed, "billing.error.payment_failed.title", "billing.error.payment_failed.description"},
	KindCardDeclined:         {KindCardDeclined, "billing.error.card_declined.title", "billing.error.card_declined.description"},
	KindAlreadySubscribed:    {KindAlreadySubscribed, "billing.error.already_subscribed.title", "billing.error.already_subscribed.description"},
	KindTrialEnded:           {KindTrialEnded, "billing.error.trial_ended.title", "billing.error.trial_ended.description"},
	KindSubscriptionNotFound: {KindSubscriptionNotFound, "billing.error.subscription_not_found.title", "billing.error.subscription_not_found.description"},
	KindProviderError:        {KindProviderError, "billing.error.provider_error.title", "billing.error.provider_error.description"},
	KindInvalidPlan:          {KindInvalidPlan, "billing.error.invalid_plan.title", "billing.error.invalid_plan.description"},
	KindServiceUnavailable:   {KindServiceUnavailable, "billing.error.service_unavailable.title", "billing.error.service_unavailable.description"},
	KindUnknown:              {KindUnknown, genericTitleKey, genericDescriptionKey},
}

// ErrorBody is the structured error object inside a backend failure response.
// The shape is controlled by a partially-trusted upstream; every field is
// optional.
type ErrorBody struct {
	Type    string          `json:"type,omitempty"`
	Message string          `json:"message,omitempty"`
	Code    *int            `json:"code,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// ErrorEnvelope is the top-level failure payload: {"error": {...}}.
type ErrorEnvelope struct {
	Error *ErrorBody `json:"error"`
}

// APIError is a failure returned by the billing backend, as decoded by the
// HTTP client. It satisfies error so it can flow through normal error paths
// and still be recovered by the classifier.
type APIError struct {
	StatusCode int
	Body       ErrorBody
}

func (e *APIError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("billing backend: %s (type=%s, status=%d)", e.Body.Message, e.Body.Type, e.StatusCode)
	}
	return fmt.Sprintf("billing backend: status %d", e.StatusCode)
}

// NewAPIError builds an APIError for the given recognized kind.
func NewAPIError(status int, kind ErrorKind, message string) *APIError {
	return &APIError{
		StatusCode: status,
		Body:       ErrorBody{Type: kind.String(), Message: message},
	}
}

// Classify maps an arbitrary failure value to a displayable Message.
//
// The ladder, first match wins:
//  1. structured error with a recognized type -> canned message for that kind
//  2. structured error with an unrecognized type or a bare message -> that
//     message verbatim under KindUnknown
//  3. plain string -> verbatim under KindUnknown
//  4. anything else -> the generic fallback under KindUnknown
//
// Classification never panics; a failure while inspecting the input degrades
// to the generic fallback.
func Classify(input any) (msg Message) {
	defer func() {
		if r := recover(); r != nil {
			msg = messageByKind[KindUnknown]
		}
	}()

	if body, ok := extractErrorBody(input); ok {
		if kind, recognized := kindByType[body.Type]; recognized {
			return messageByKind[kind]
		}
		if body.Message != "" {
			return Message{Kind: KindUnknown, Title: genericTitleKey, Description: body.Message}
		}
		return messageByKind[KindUnknown]
	}

	switch v := input.(type) {
	case nil:
		return messageByKind[KindUnknown]
	case string:
		if v != "" {
			return Message{Kind: KindUnknown, Title: genericTitleKey, Description: v}
		}
	case error:
		if text := v.Error(); text != "" {
			return Message{Kind: KindUnknown, Title: genericTitleKey, Description: text}
		}
	}
	return messageByKind[KindUnknown]
}

// Code extracts the numeric error code from a failure value for telemetry
// correlation. The second return is false when no code is present.
func Code(input any) (code int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			code, ok = 0, false
		}
	}()

	body, found := extractErrorBody(input)
	if !found || body.Code == nil {
		return 0, false
	}
	return *body.Code, true
}

// extractErrorBody recovers a structured ErrorBody from the shapes the
// backend (or intermediate layers) may hand us.
func extractErrorBody(input any) (ErrorBody, bool) {
	switch v := input.(type) {
	case *APIError:
		if v == nil {
			return ErrorBody{}, false
		}
		return v.Body, true
	case APIError:
		return v.Body, true
	case *ErrorBody:
		if v == nil {
			return ErrorBody{}, false
		}
		return *v, true
	case ErrorBody:
		return v, true
	case ErrorEnvelope:
		if v.Error != nil {
			return *v.Error, true
		}
	case *ErrorEnvelope:
		if v != nil && v.Error != nil {
			return *v.Error, true
		}
	case []byte:
		return decodeErrorBody(v)
	case json.RawMessage:
		return decodeErrorBody(v)
	case map[string]any:
		return errorBodyFromMap(v)
	case error:
		var apiErr *APIError
		if errors.As(v, &apiErr) {
			return apiErr.Body, true
		}
	}
	return ErrorBody{}, false
}

func decodeErrorBody(raw []byte) (ErrorBody, bool) {
	var envelope ErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		return *envelope.Error, true
	}
	var body ErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && (body.Type != "" || body.Message != "") {
		return body, true
	}
	return ErrorBody{}, false
}

func errorBodyFromMap(m map[string]any) (ErrorBody, bool) {
	// Accept both the envelope shape {"error": {...}} and a bare body.
	if inner, ok := m["error"].(map[string]any); ok {
		m = inner
	}

	var body ErrorBody
	found := false
	if t, ok := m["type"].(string); ok {
		body.Type = t
		found = true
	}
	if msg, ok := m["message"].(string); ok {
		body.Message = msg
		found = true
	}
	switch c := m["code"].(type) {
	case float64:
		code := int(c)
		body.Code = &code
	case int:
		code := c
		body.Code = &code
	}
	return body, found
}
