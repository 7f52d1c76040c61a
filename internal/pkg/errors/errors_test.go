package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_WithMessageDoesNotMutateSentinel(t *testing.T) {
	err := ErrConfiguration.WithMessage("column %q not found", "pop")

	assert.Equal(t, `column "pop" not found`, err.Message)
	assert.Equal(t, "Invalid summary configuration", ErrConfiguration.Message)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := ErrGeometry.WithMessage("unsupported CRS")
	wrapped := fmt.Errorf("summarize: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrGeometry))
	assert.False(t, stderrors.Is(wrapped, ErrConfiguration))
}

func TestAppError_WrapKeepsCause(t *testing.T) {
	cause := stderrors.New("topology exception")
	err := ErrGeometry.Wrap(cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "topology exception")
	assert.Nil(t, ErrGeometry.Err)

	var appErr *AppError
	require.True(t, stderrors.As(fmt.Errorf("outer: %w", err), &appErr))
	assert.Equal(t, "GEOMETRY_ERROR", appErr.Code)
}

func TestAppError_WithDetails(t *testing.T) {
	err := ErrLayerNotFound.WithDetails(map[string]interface{}{"layer_id": "abc"})

	assert.Equal(t, "abc", err.Details["layer_id"])
	assert.Empty(t, ErrLayerNotFound.Details)
}
