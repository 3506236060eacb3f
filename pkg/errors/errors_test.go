package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrInvalidTransition, "document must be in REVIEW")
	require.Equal(t, "document must be in REVIEW", err.Message)
	assert.True(t, stdErrors.Is(err, ErrInvalidTransition))
	assert.False(t, stdErrors.Is(err, ErrNotFound))
	assert.Equal(t, "transition not allowed from current status", ErrInvalidTransition.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	raw := fmt.Errorf("connection reset")
	appErr := FromError(raw)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, raw)

	wrapped := fmt.Errorf("outer: %w", ErrRateLimited)
	assert.Equal(t, ErrRateLimited.Code, FromError(wrapped).Code)
	assert.Nil(t, FromError(nil))
}

func TestWithDetails(t *testing.T) {
	err := WithDetails(ErrRateLimited, map[string]interface{}{"retryAfter": 12})
	assert.Equal(t, 12, err.Details["retryAfter"])
	assert.Nil(t, ErrRateLimited.Details)
}
