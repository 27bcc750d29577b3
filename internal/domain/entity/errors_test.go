package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{"link", "link", "link is required", "validation error on field 'link': link is required"},
		{"empty field name", "", "test message", "validation error on field '': test message"},
		{"empty message", "test", "", "validation error on field 'test': "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ValidationError{Field: tt.field, Message: tt.message}
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("Create: %w", &ValidationError{Field: "email", Message: "invalid format"})

	assert.True(t, errors.Is(err, ErrValidationFailed))

	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "email", validationErr.Field)
}

func TestTransitionError(t *testing.T) {
	err := &TransitionError{Entity: "article", From: "APPROVED", To: "REJECTED"}

	assert.Equal(t, "article: cannot transition from APPROVED to REJECTED", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestSentinelErrors_Uniqueness(t *testing.T) {
	all := []error{ErrNotFound, ErrInvalidInput, ErrValidationFailed, ErrInvalidTransition, ErrDuplicate}
	for i := range all {
		for j := range all {
			if i != j {
				assert.False(t, errors.Is(all[i], all[j]), "%v matched %v", all[i], all[j])
			}
		}
	}
}
