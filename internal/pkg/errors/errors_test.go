package errors

import (
	"errors"
	"io"
	"testing"
)

func TestKindsMatchWithErrorsIs(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind error
	}{
		{"validation", Validation("store", "bad %s", "input"), ErrValidation},
		{"invalid argument is validation", InvalidArgument("award", "negative"), ErrValidation},
		{"invalid argument", InvalidArgument("award", "negative"), ErrInvalidArgument},
		{"storage", Storage("write", io.ErrShortWrite), ErrStorage},
		{"permission", Permission("delete", "owner mismatch"), ErrPermission},
		{"conflict", Conflict("record", nil), ErrConcurrencyConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.kind) {
				t.Fatalf("errors.Is(%v, %v) = false", tc.err, tc.kind)
			}
		})
	}
}

func TestStorageKeepsCause(t *testing.T) {
	err := Storage("write", io.ErrShortWrite)
	if !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("cause not reachable through errors.Is")
	}
	if got := err.Error(); got != "write: storage error: short write" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(Storage("write", nil)) {
		t.Fatalf("storage errors are retryable")
	}
	if !IsRetryable(Conflict("record", nil)) {
		t.Fatalf("conflicts are retryable")
	}
	if IsRetryable(Validation("store", "bad")) {
		t.Fatalf("validation errors are not retryable")
	}
	if IsRetryable(nil) {
		t.Fatalf("nil is not retryable")
	}
}
