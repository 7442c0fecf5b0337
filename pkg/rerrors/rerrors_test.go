package rerrors

import (
	"errors"
	"testing"
)

func TestNewAndError(t *testing.T) {
	err := New(CodeTransport, "fetch failed")
	if err.Code != CodeTransport {
		t.Fatalf("code = %v, want %v", err.Code, CodeTransport)
	}
	if err.Error() == "" {
		t.Fatal("Error() returned empty string")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(cause, CodeTransport, "reading url")

	if !errors.Is(wrapped, cause) {
		t.Fatal("errors.Is should find the wrapped cause")
	}
	if got := errors.Unwrap(wrapped); got != cause {
		t.Fatalf("Unwrap() = %v, want %v", got, cause)
	}
}

func TestAsAndHasCode(t *testing.T) {
	err := Newf(CodeWrongKind, "expected %s got %s", "object", "array")

	re, ok := As(err)
	if !ok {
		t.Fatal("As() should find a *ResolverError")
	}
	if re.Code != CodeWrongKind {
		t.Fatalf("code = %v, want %v", re.Code, CodeWrongKind)
	}

	if !HasCode(err, CodeWrongKind) {
		t.Fatal("HasCode should match its own code")
	}
	if HasCode(err, CodeTransport) {
		t.Fatal("HasCode should not match a different code")
	}
	if HasCode(errors.New("plain"), CodeWrongKind) {
		t.Fatal("HasCode should be false for a non-ResolverError")
	}
}

func TestWithDetailsAndContext(t *testing.T) {
	err := New(CodeProviderInvalid, "bad provider").
		WithDetailsf("provider %s", "keeta_foo").
		WithContext("providerID", "keeta_foo")

	if err.Details == "" {
		t.Fatal("WithDetailsf should set Details")
	}
	if err.Context["providerID"] != "keeta_foo" {
		t.Fatalf("context = %v", err.Context)
	}
}

func TestAsNilWhenNotResolverError(t *testing.T) {
	if _, ok := As(errors.New("plain")); ok {
		t.Fatal("As() should return false for a plain error")
	}
}
