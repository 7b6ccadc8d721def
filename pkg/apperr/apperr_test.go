package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_MessageAndUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := Wrap("Search", CodeAutomation, base, nil)

	if got := err.Error(); got != "Search: boom" {
		t.Errorf("unexpected message: %q", got)
	}

	if !errors.Is(err, base) {
		t.Error("wrapped error should unwrap to its cause")
	}

	var e *Error
	if !errors.As(err, &e) || e.Metadata == nil {
		t.Fatal("metadata should default to an empty map")
	}
}

func TestHasCode_NestedChain(t *testing.T) {
	inner := Wrap("WaitForSelector", CodeTimeout, errors.New("deadline"), nil)
	outer := Wrap("Authenticate", CodeSessionCookieTimeout, inner, nil)
	wrapped := fmt.Errorf("run: %w", outer)

	if !HasCode(wrapped, CodeTimeout) {
		t.Error("inner timeout code should be visible through the chain")
	}

	if got := CodeOf(wrapped); got != CodeSessionCookieTimeout {
		t.Errorf("CodeOf returned %q", got)
	}

	if HasCode(wrapped, CodeLoginRejected) {
		t.Error("unrelated code reported as present")
	}
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"cookie timeout", AuthError("op", CodeSessionCookieTimeout, "cookie", nil), true},
		{"login rejected", AuthError("op", CodeLoginRejected, "rejected", nil), true},
		{"entry point", AuthError("op", CodeEntryPointUnavailable, "entry", nil), true},
		{"expired", AuthError("op", CodeSessionExpired, "expired", nil), true},
		{"automation", Wrap("op", CodeAutomation, errors.New("x"), nil), false},
		{"plain", errors.New("plain"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthError(tt.err); got != tt.want {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthError_DefaultsCauseToReason(t *testing.T) {
	err := AuthError("Authenticate", CodeLoginRejected, "login_url_unchanged", nil)

	if got := err.Error(); got != "Authenticate: login_url_unchanged" {
		t.Errorf("unexpected message: %q", got)
	}

	var e *Error
	errors.As(err, &e)

	if e.Metadata[MetaStage] != StageAuth {
		t.Errorf("stage metadata = %v", e.Metadata[MetaStage])
	}
}
