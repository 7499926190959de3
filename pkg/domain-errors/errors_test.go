package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardReasons(t *testing.T) {
	err := Guard(ReasonFeedbackRequired, "feedback is required")

	assert.True(t, HasCode(err, CodeGuardViolation))
	assert.Equal(t, ReasonFeedbackRequired, ReasonOf(err))
	assert.True(t, IsGuard(err, ReasonFeedbackRequired))
	assert.False(t, IsGuard(err, ReasonNotReady))
	assert.Equal(t, http.StatusUnprocessableEntity, ToHTTPStatus(err))

	wrapped := fmt.Errorf("transition: %w", err)
	assert.Equal(t, ReasonFeedbackRequired, ReasonOf(wrapped), "reason survives fmt wrapping")
}

func TestReasonOfNonGuard(t *testing.T) {
	assert.Equal(t, Reason(""), ReasonOf(New(CodeConflict, "stale")))
	assert.Equal(t, Reason(""), ReasonOf(errors.New("plain")))
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", New(CodeValidation, "bad"), http.StatusBadRequest},
		{"not found", New(CodeNotFound, "missing"), http.StatusNotFound},
		{"conflict", New(CodeConflict, "stale"), http.StatusConflict},
		{"guard unauthorized", Guard(ReasonUnauthorized, "no"), http.StatusForbidden},
		{"guard invalid transition", Guard(ReasonInvalidTransition, "no"), http.StatusConflict},
		{"guard not ready", Guard(ReasonNotReady, "no"), http.StatusUnprocessableEntity},
		{"configuration", New(CodeConfiguration, "broken"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.err))
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("db down")
	err := Wrap(cause, CodeInternal, "failed to load study")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load study: db down", err.Error())
}
