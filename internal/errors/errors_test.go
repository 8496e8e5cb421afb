package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	plain := NewNotFoundError("user alice")
	assert.Equal(t, "NOT_FOUND: user alice not found", plain.Error())

	wrapped := NewStoreError("mongo", "upsert failed", errors.New("connection reset"))
	assert.Equal(t, "STORE_FAILED: mongo: upsert failed (connection reset)", wrapped.Error())
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewInternalError("failed to encode response", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestIsNotFound(t *testing.T) {
	require.True(t, IsNotFound(NewNotFoundError("repo x")))

	assert.False(t, IsNotFound(NewFetchError("search failed", errors.New("timeout"))))
	assert.False(t, IsNotFound(fmt.Errorf("plain error")))
	assert.False(t, IsNotFound(nil))
}
