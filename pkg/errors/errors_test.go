package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrorType_Status(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{err: NewValidationError("bad"), status: http.StatusBadRequest},
		{err: NewNotFoundError("draft"), status: http.StatusNotFound},
		{err: NewUnauthorizedError("no"), status: http.StatusUnauthorized},
		{err: NewForbiddenError("no"), status: http.StatusForbidden},
		{err: NewTimeoutError("layout"), status: http.StatusGatewayTimeout},
		{err: NewDatabaseError("save draft", errors.New("throttled")), status: http.StatusInternalServerError},
		{err: NewExternalError("openai", errors.New("rate limited")), status: http.StatusBadGateway},
		{err: NewInternalError("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Type.Status())
		})
	}
	assert.Equal(t, http.StatusInternalServerError, ErrorType("NEW").Status())
}

func TestAppError_Chain(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("load network: %w", NewExternalError("neo4j", cause))

	assert.True(t, IsType(err, ErrorTypeExternal))
	assert.False(t, IsNotFound(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Nil(t, GetAppError(cause))
}

func TestErrorHandler_Handle(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	t.Run("app error uses its status and code", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/v1/content/draft", nil)

		handler.Handle(w, r, NewNotFoundError("draft").WithCode(CodeDraftNotFound))

		assert.Equal(t, http.StatusNotFound, w.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Error)
		assert.Equal(t, CodeDraftNotFound, body.Code)
		assert.Equal(t, string(ErrorTypeNotFound), body.Type)
		assert.Equal(t, "draft not found", body.Message)
	})

	t.Run("unknown error hides its message", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		handler.Handle(w, r, errors.New("secret detail"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "secret detail")
	})

	t.Run("cause stays out of the body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		handler.Handle(w, r, NewDatabaseError("save draft", errors.New("table missing")))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), CodeStorageFailure)
		assert.NotContains(t, w.Body.String(), "table missing")
	})
}

func TestErrorHandler_DebugShowsCause(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), true)
	details := map[string]interface{}{"reason": "quota"}
	w := httptest.NewRecorder()

	handler.Handle(w, httptest.NewRequest(http.MethodGet, "/", nil),
		NewExternalError("openai", errors.New("429 too many requests")).WithDetails(details))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "429 too many requests", body.Details["cause"])
	assert.Equal(t, "quota", body.Details["reason"])
	assert.NotContains(t, details, "cause")
}

func TestErrorHandler_Middleware_RecoversPanics(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	handler.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("test panic")
	})).ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "test panic")
}
