package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrInvalidConfig", ErrInvalidConfig},
		{"ErrParse", ErrParse},
		{"ErrNotImplemented", ErrNotImplemented},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrSyncInProgress", ErrSyncInProgress},
		{"ErrConflict", ErrConflict},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrIndexUnavailable", ErrIndexUnavailable},
		{"ErrConnectorValidation", ErrConnectorValidation},
		{"ErrConnectorClosed", ErrConnectorClosed},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Distinct tests that sentinel errors do not match each other
func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrParse, ErrInvalidConfig))
	assert.False(t, errors.Is(ErrEmbeddingUnavailable, ErrIndexUnavailable))
	assert.False(t, errors.Is(ErrConflict, ErrAlreadyExists))
	assert.False(t, errors.Is(ErrNotFound, ErrConflict))
}

// TestErrors_Wrapping tests that wrapped sentinels are still matchable
func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("normalise travel_guides/japan.md: %w", ErrParse)
	assert.True(t, errors.Is(wrapped, ErrParse))

	doubleWrapped := fmt.Errorf("sync source: %w", wrapped)
	assert.True(t, errors.Is(doubleWrapped, ErrParse))
	assert.False(t, errors.Is(doubleWrapped, ErrInvalidConfig))
}

// TestErrors_Messages tests the exact messages of the pipeline errors
func TestErrors_Messages(t *testing.T) {
	assert.Equal(t, "parse failure", ErrParse.Error())
	assert.Equal(t, "invalid configuration", ErrInvalidConfig.Error())
	assert.Equal(t, "embedding service unavailable", ErrEmbeddingUnavailable.Error())
	assert.Equal(t, "vector index unavailable", ErrIndexUnavailable.Error())
	assert.Equal(t, "conflict", ErrConflict.Error())
	assert.Equal(t, "not found", ErrNotFound.Error())
}
