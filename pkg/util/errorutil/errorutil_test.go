package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThroughDomainErrors(t *testing.T) {
	original := NewInvalidTransition("closed tickets cannot be reopened", nil)
	wrapped := fmt.Errorf("update: %w", original)

	got := ToDomainError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeInvalidTransition, got.Code)
	assert.Equal(t, http.StatusBadRequest, got.HTTPStatus)
}

func TestToDomainError_NoRowsIsNotFound(t *testing.T) {
	got := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, CodeNotFound, got.Code)
	assert.Equal(t, http.StatusNotFound, got.HTTPStatus)
}

func TestToDomainError_UnknownIsInternal(t *testing.T) {
	cause := errors.New("connection reset")
	got := ToDomainError(cause)
	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, "internal server error", got.Message)
	assert.ErrorIs(t, got, cause)
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(NewNotFound("ticket", nil), CodeNotFound))
	assert.False(t, HasCode(NewNotFound("ticket", nil), CodeConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
}

func TestNewNotFound_Message(t *testing.T) {
	err := NewNotFound("customer", map[string]any{"customer_id": int64(7)})
	assert.EqualError(t, err, "customer not found")
}
