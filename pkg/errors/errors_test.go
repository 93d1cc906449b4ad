package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorType
	}{
		{http.StatusBadRequest, ErrorTypeBadRequest},
		{http.StatusUnauthorized, ErrorTypeAuth},
		{http.StatusForbidden, ErrorTypeAuth},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusBadGateway, ErrorTypeServerError},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromStatus(tt.status)
			assert.Equal(t, tt.expected, err.Type)
			assert.Equal(t, tt.status, err.Code)
		})
	}
}

func TestIsTransient(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		assert.True(t, IsTransient(FromStatus(http.StatusServiceUnavailable)))
	})

	t.Run("forbidden is retried like any other non-400 status", func(t *testing.T) {
		assert.True(t, IsTransient(FromStatus(http.StatusForbidden)))
	})

	t.Run("bad request is terminal", func(t *testing.T) {
		assert.False(t, IsTransient(FromStatus(http.StatusBadRequest)))
	})

	t.Run("network error", func(t *testing.T) {
		assert.True(t, IsTransient(New(ErrorTypeNetwork, 0, "connection reset")))
	})

	t.Run("parsing error", func(t *testing.T) {
		assert.False(t, IsTransient(New(ErrorTypeParsing, http.StatusOK, "bad json")))
	})

	t.Run("wrapped", func(t *testing.T) {
		err := fmt.Errorf("fetch page: %w", FromStatus(http.StatusInternalServerError))
		assert.True(t, IsTransient(err))
		assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.False(t, IsTransient(fmt.Errorf("boom")))
		assert.Equal(t, 0, StatusCode(fmt.Errorf("boom")))
	})
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeBadRequest))
	assert.False(t, IsRetryable(ErrorTypeUnknown))
}
