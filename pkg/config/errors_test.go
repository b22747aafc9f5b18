package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_MessageAndUnwrap(t *testing.T) {
	err := NewValidationError("solver", ErrInvalidValue)
	assert.Contains(t, err.Error(), "solver")
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestLoadError_MessageAndUnwrap(t *testing.T) {
	inner := errors.New("permission denied")
	err := NewLoadError("/tmp/config.json", inner)
	assert.Contains(t, err.Error(), "/tmp/config.json")
	assert.True(t, errors.Is(err, inner))
}
