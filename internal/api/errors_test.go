package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFor(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		status      int
		body        string
		credentials bool
		message     string
	}{
		{"login rejected", "/auth/login", 401, `{"detail":"Incorrect email or password"}`, true, "Incorrect email or password"},
		{"register duplicate", "/auth/register", 400, `{"detail":"Email already registered"}`, true, "Email already registered"},
		{"register validation", "/auth/register", 422, `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"}]}`, true, "email: value is not a valid email address"},
		{"auth server error", "/auth/login", 500, `{"detail":"boom"}`, false, "boom"},
		{"not found", "/expenses/e1", 404, `{"detail":"Expense not found"}`, false, "Expense not found"},
		{"plain body", "/expenses", 502, `<html>bad gateway</html>`, false, "Bad Gateway"},
		{"message field", "/expenses", 500, `{"message":"oops"}`, false, "oops"},
		{"multiple entries", "/expenses", 422, `{"detail":[{"loc":["body","amount"],"msg":"too small"},{"loc":["body"],"msg":"bad"}]}`, false, "amount: too small; bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errorFor(tt.path, tt.status, []byte(tt.body))

			var credErr *CredentialsError
			assert.Equal(t, tt.credentials, errors.As(err, &credErr))
			if tt.credentials {
				assert.Equal(t, tt.message, credErr.Message)
				return
			}
			var apiErr *Error
			if assert.ErrorAs(t, err, &apiErr) {
				assert.Equal(t, tt.message, apiErr.Message)
				assert.Equal(t, tt.status, apiErr.StatusCode)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	tests := []struct {
		status int
		target error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusConflict, ErrConflict},
	}

	for _, tt := range tests {
		err := error(&Error{StatusCode: tt.status, Message: "x"})
		assert.ErrorIs(t, err, tt.target)
		for _, other := range []error{ErrNotFound, ErrUnauthorized, ErrForbidden, ErrConflict} {
			if other != tt.target {
				assert.NotErrorIs(t, err, other)
			}
		}
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := error(&TransportError{Op: "GET /expenses", Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsTransport(err))
	assert.False(t, IsTransport(cause))
}
