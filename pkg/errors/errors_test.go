package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceError_KindMatching(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  *ServiceError
		kind error
	}{
		{"store", StoreAPI("rustore", cause), ErrStoreAPI},
		{"categorization", CategorizationAPI(cause), ErrCategorizationAPI},
		{"metrics", MetricsAPI(cause), ErrMetricsAPI},
		{"database", Database("insert review", cause), ErrDatabase},
		{"invalid input", InvalidInput("stores required"), ErrInvalidInput},
		{"internal", Internal(cause), ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.kind))
		})
	}
}

func TestServiceError_UnwrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := StoreAPI("rustore", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrStoreAPI))
	assert.False(t, errors.Is(err, ErrDatabase))
}

func TestServiceError_SurvivesWrapping(t *testing.T) {
	inner := Database("mark processed", errors.New("deadlock"))
	wrapped := fmt.Errorf("categorize phase: %w", inner)

	assert.True(t, errors.Is(wrapped, ErrDatabase))

	var svcErr *ServiceError
	require.True(t, errors.As(wrapped, &svcErr))
	assert.Equal(t, "DATABASE_ERROR", svcErr.Code)
}

func TestHTTPStatus(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"store upstream", StoreAPI("rustore", cause), http.StatusBadGateway},
		{"categorization upstream", CategorizationAPI(cause), http.StatusBadGateway},
		{"metrics best effort", MetricsAPI(cause), http.StatusOK},
		{"database", Database("exists", cause), http.StatusInternalServerError},
		{"validation", InvalidInput("bad"), http.StatusBadRequest},
		{"pipeline", Service("failed to fetch any reviews"), http.StatusInternalServerError},
		{"unknown", errors.New("mystery"), http.StatusInternalServerError},
		{"wrapped store", fmt.Errorf("ctx: %w", StoreAPI("rustore", cause)), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestServiceError_ErrorString(t *testing.T) {
	err := Database("exists", errors.New("timeout"))
	assert.Contains(t, err.Error(), "DATABASE_ERROR")
	assert.Contains(t, err.Error(), "timeout")

	noCause := InvalidInput("stores required")
	assert.Equal(t, "INVALID_INPUT: stores required", noCause.Error())
}
