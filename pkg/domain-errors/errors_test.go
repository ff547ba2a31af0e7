package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	cause := errors.New("disk full")
	inner := Wrap(cause, CodeUnavailable, "storage unavailable")
	outer := Wrap(inner, CodeInternal, "failed to register")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeUnavailable))
	assert.False(t, HasCode(outer, CodeConflict))
	assert.ErrorIs(t, outer, cause)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(New(CodeValidation, "bad")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeConflict, CodeOf(fmt.Errorf("context: %w", New(CodeConflict, "taken"))))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad input", New(CodeBadRequest, "bad input").Error())
	assert.Equal(t, "save failed: boom", Wrap(errors.New("boom"), CodeInternal, "save failed").Error())
}
