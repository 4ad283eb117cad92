package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{New(ErrCodeInvalidTree, "duplicate employee id %q", "7"), `INVALID_TREE: duplicate employee id "7"`},
		{Wrap(ErrCodeNetwork, errors.New("connection refused"), "GET %s", "/api/employees"),
			"NETWORK_ERROR: GET /api/employees: connection refused"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(ErrCodeTimeout, cause, "load settings")
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap did not return the cause")
	}
}

func TestIsAndGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"match", New(ErrCodeNoRoot, "no root"), ErrCodeNoRoot, true},
		{"mismatch", New(ErrCodeNoRoot, "no root"), ErrCodeNotFound, false},
		{"outermost wins", Wrap(ErrCodeExportFailed, New(ErrCodeNetwork, "photo"), "png"), ErrCodeExportFailed, true},
		{"inner hidden", Wrap(ErrCodeExportFailed, New(ErrCodeNetwork, "photo"), "png"), ErrCodeNetwork, false},
		{"fmt wrapped", fmt.Errorf("reload: %w", New(ErrCodeInvalidTree, "cycle")), ErrCodeInvalidTree, true},
		{"plain", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil", nil, ErrCodeInvalidInput, false},
		{"empty code never matches", errors.New("plain"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is = %v, want %v", got, tt.want)
			}
		})
	}
	if GetCode(nil) != "" {
		t.Error("GetCode(nil) should be empty")
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(Wrap(ErrCodeUnauthorized, errors.New("bcrypt"), "Invalid password")); got != "Invalid password" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestIsAuth(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{New(ErrCodeUnauthorized, "x"), true},
		{New(ErrCodeSessionExpired, "x"), true},
		{New(ErrCodeForbidden, "x"), false},
		{New(ErrCodeNetwork, "x"), false},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := IsAuth(tt.err); got != tt.want {
			t.Errorf("IsAuth(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestStatusRoundTrip(t *testing.T) {
	codes := []Code{
		ErrCodeNotFound, ErrCodeUnauthorized, ErrCodeForbidden,
		ErrCodeRateLimited, ErrCodeTimeout, ErrCodeInvalidInput,
	}
	for _, code := range codes {
		status := HTTPStatus(New(code, "x"))
		if got := FromStatus(status, "", "x").Code; got != code {
			t.Errorf("%s → %d → %s", code, status, got)
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{ErrCodeInvalidSettings, http.StatusBadRequest},
		{ErrCodeInvalidFormat, http.StatusBadRequest},
		{ErrCodeNoRoot, http.StatusNotFound},
		{ErrCodeFileNotFound, http.StatusNotFound},
		{ErrCodeSessionExpired, http.StatusUnauthorized},
		{ErrCodeExportFailed, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(New(tt.code, "x")); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		code   Code
		want   Code
	}{
		{http.StatusBadRequest, ErrCodeInvalidSettings, ErrCodeInvalidSettings},
		{http.StatusNotFound, ErrCodeNoRoot, ErrCodeNoRoot},
		{http.StatusConflict, "", ErrCodeInvalidInput},
		{http.StatusTeapot, "", ErrCodeInvalidInput},
		{http.StatusFound, "", ErrCodeNetwork},
	}
	for _, tt := range tests {
		if got := FromStatus(tt.status, tt.code, "msg"); got.Code != tt.want {
			t.Errorf("FromStatus(%d, %q) = %s, want %s", tt.status, tt.code, got.Code, tt.want)
		}
	}
}
