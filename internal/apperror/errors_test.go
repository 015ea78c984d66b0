package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"validation", NewValidation("empty payload"), IsValidation},
		{"not found", NewNotFound("conversation %s missing", "x"), IsNotFound},
		{"forbidden", NewForbidden("not a participant"), IsForbidden},
		{"conflict", NewConflict("pair already exists"), IsConflict},
		{"assistant unavailable", NewAssistantUnavailable(errors.New("timeout")), IsAssistantUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("kind check failed for %v", tt.err)
			}
			// Wrapping must not hide the kind.
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !tt.check(wrapped) {
				t.Errorf("kind check failed through wrapping for %v", wrapped)
			}
		})
	}

	if IsNotFound(NewValidation("nope")) {
		t.Error("kinds must not cross-match")
	}
	if IsValidation(errors.New("plain")) {
		t.Error("plain errors have no kind")
	}
}

func TestAssistantUnavailableUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewAssistantUnavailable(cause)

	if !errors.Is(err, cause) {
		t.Error("cause must be reachable through Unwrap")
	}
	if err.Error() == cause.Error() {
		t.Error("message should add context around the cause")
	}
}
