package errors

import "testing"

func TestErrorHelpers(t *testing.T) {
	err := NewInvalidArgument("bad")
	if !IsInvalidArgument(err) {
		t.Fatal("expected invalid argument")
	}

	wrapped := WrapInternal(err, "ctx")
	if !IsInternal(wrapped) {
		t.Fatal("expected internal")
	}
}

func TestTokenErrorsWrapInvalidToken(t *testing.T) {
	for _, err := range []error{ErrTokenMalformed, ErrTokenSignatureInvalid, ErrTokenExpired} {
		if !IsInvalidToken(err) {
			t.Fatalf("%v should be an invalid token error", err)
		}
	}
	if IsTokenExpired(ErrTokenSignatureInvalid) {
		t.Fatal("signature error must not look expired")
	}
	if IsTokenMalformed(ErrTokenExpired) {
		t.Fatal("expired error must not look malformed")
	}
}
