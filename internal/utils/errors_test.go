package utils

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidArgument: http.StatusBadRequest,
		CodeUnauthorized:    http.StatusUnauthorized,
		CodeForbidden:       http.StatusForbidden,
		CodeNotFound:        http.StatusNotFound,
		CodeConflict:        http.StatusConflict,
		CodeBadGateway:      http.StatusBadGateway,
		CodeUnavailable:     http.StatusServiceUnavailable,
		CodeTimeout:         http.StatusGatewayTimeout,
		CodeInternal:        http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := HTTPStatus(E(code, "Op", "msg", nil)); got != want {
			t.Errorf("%s -> %d, want %d", code, got, want)
		}
	}

	if got := HTTPStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("plain error -> %d, want 500", got)
	}
	if got := HTTPStatus(ErrNotFound); got != http.StatusNotFound {
		t.Errorf("ErrNotFound -> %d, want 404", got)
	}
}

func TestIsCodeUnwraps(t *testing.T) {
	inner := E(CodeUnavailable, "Provider.Embed", "quota", nil)
	outer := E(CodeInternal, "Service.Upsert", "wrapped", inner)

	if !IsCode(outer, CodeInternal) {
		t.Error("outer code not matched")
	}
	if IsCode(outer, CodeNotFound) {
		t.Error("unexpected code match")
	}
	if !errors.Is(errors.Unwrap(outer), inner) {
		t.Error("wrapped error lost")
	}
}

func TestAppErrorMessage(t *testing.T) {
	err := E(CodeInvalidArgument, "SopStateService.SetState", "tenant_id is required", nil)
	want := "SopStateService.SetState: tenant_id is required"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestAPIKeyRoundTrip(t *testing.T) {
	key := NewAPIKey()
	if len(key) < 10 {
		t.Fatalf("key too short: %q", key)
	}

	hash, err := HashAPIKey(key)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if hash == key {
		t.Error("hash must not equal plaintext")
	}

	if err := CheckAPIKey(hash, key); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	if err := CheckAPIKey(hash, "nk_wrong"); err == nil {
		t.Error("wrong key accepted")
	}
}
