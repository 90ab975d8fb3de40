package errors

import (
	stderrors "errors"
	"testing"
)

func TestErrorMessageFormatting(t *testing.T) {
	plain := Validation("bad input")
	if plain.Error() != "bad input" {
		t.Errorf("Error() = %q", plain.Error())
	}

	wrapped := ExternalFetch(stderrors.New("connection refused"), "fetching track list")
	if wrapped.Error() != "fetching track list: connection refused" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}

func TestUnwrap(t *testing.T) {
	inner := stderrors.New("boom")
	err := Wrap(inner, ErrInternal, "loading player")

	if !stderrors.Is(err, inner) {
		t.Error("errors.Is failed to find the wrapped error")
	}

	var appErr *Error
	if !stderrors.As(error(err), &appErr) {
		t.Fatal("errors.As failed")
	}
	if appErr.Kind != ErrInternal {
		t.Errorf("Kind = %v, want ErrInternal", appErr.Kind)
	}
}

func TestConstructorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind Kind
	}{
		{"not found", NotFound("x"), ErrNotFound},
		{"not foundf", NotFoundf("x %d", 1), ErrNotFound},
		{"validation", Validation("x"), ErrValidation},
		{"validationf", Validationf("x %d", 1), ErrValidation},
		{"conflict", Conflict("x"), ErrConflict},
		{"invalid input", InvalidInput("x"), ErrInvalidInput},
		{"internal", Internalf("x %d", 1), ErrInternal},
		{"external fetch", ExternalFetch(stderrors.New("y"), "x"), ErrExternalFetch},
		{"ambiguous vote", AmbiguousVote("x"), ErrAmbiguousVote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
		})
	}
}
