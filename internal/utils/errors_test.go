package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError("committed capital must be positive")
	assert.Equal(t, "committed capital must be positive", err.Error())
}

func TestNewValidationErrorf(t *testing.T) {
	err := NewValidationErrorf("zone %s volatility must be non-negative", "growth")
	assert.Equal(t, "zone growth volatility must be non-negative", err.Error())
}

func TestIsValidationError(t *testing.T) {
	plain := errors.New("disk full")
	validation := NewValidationError("bad input")
	wrapped := fmt.Errorf("loading config: %w", validation)

	assert.False(t, IsValidationError(nil))
	assert.False(t, IsValidationError(plain))
	assert.True(t, IsValidationError(validation))
	assert.True(t, IsValidationError(wrapped), "wrapped validation errors still match")
}
