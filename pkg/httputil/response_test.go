package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexportal/lexportal/pkg/billing"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteJSON(w, http.StatusTeapot, map[string]string{"k": "v"}))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"k":"v"}`, w.Body.String())
}

func TestWriteBillingError(t *testing.T) {
	code := 2001
	w := httptest.NewRecorder()
	WriteBillingError(w, http.StatusPaymentRequired, billing.ErrorBody{
		Type:    billing.TypeCardDeclined,
		Message: "card ending 0341 was declined",
		Code:    &code,
	})

	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	var envelope billing.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, billing.TypeCardDeclined, envelope.Error.Type)
	require.NotNil(t, envelope.Error.Code)
	assert.Equal(t, 2001, *envelope.Error.Code)

	// The envelope round-trips through the client classifier.
	msg := billing.Classify(envelope)
	assert.Equal(t, billing.KindCardDeclined, msg.Kind)
}

func TestWriteBillingErrorKind(t *testing.T) {
	w := httptest.NewRecorder()
	WriteBillingErrorKind(w, http.StatusServiceUnavailable, billing.KindServiceUnavailable, "try again shortly")

	var envelope billing.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, billing.TypeServiceUnavailable, envelope.Error.Type)
	assert.Equal(t, "try again shortly", envelope.Error.Message)
}

func TestWriteErrorMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorMessage(w, http.StatusBadRequest, "plan_id is required")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"plan_id is required"}`, w.Body.String())
}
