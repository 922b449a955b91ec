package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinels matched by *Error through errors.Is
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// TransportError means the server could not be reached at all
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cannot reach server (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is, or wraps, a TransportError
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// CredentialsError means a reachable server rejected a login or
// registration. Message is the server's explanation, verbatim.
type CredentialsError struct {
	StatusCode int
	Message    string
}

func (e *CredentialsError) Error() string {
	return e.Message
}

// Error is any other non-success response
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// Is maps status codes onto the package sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// credentialStatuses are the auth endpoint responses that mean "rejected"
// rather than "broken"
var credentialStatuses = map[int]bool{
	http.StatusBadRequest:          true,
	http.StatusUnauthorized:        true,
	http.StatusForbidden:           true,
	http.StatusConflict:            true,
	http.StatusUnprocessableEntity: true,
}

func errorFor(path string, status int, body []byte) error {
	message := detailMessage(body)
	if message == "" {
		message = http.StatusText(status)
	}
	if strings.HasPrefix(path, "/auth/") && credentialStatuses[status] {
		return &CredentialsError{StatusCode: status, Message: message}
	}
	return &Error{StatusCode: status, Message: message}
}

// detailMessage flattens a FastAPI error body. detail is either a string or
// a list of {loc, msg} validation entries.
func detailMessage(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}

	if len(envelope.Detail) > 0 {
		var text string
		if err := json.Unmarshal(envelope.Detail, &text); err == nil {
			return text
		}

		var entries []struct {
			Loc []any  `json:"loc"`
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &entries); err == nil {
			parts := make([]string, 0, len(entries))
			for _, entry := range entries {
				if field := lastLoc(entry.Loc); field != "" {
					parts = append(parts, field+": "+entry.Msg)
				} else {
					parts = append(parts, entry.Msg)
				}
			}
			return strings.Join(parts, "; ")
		}
	}
	return envelope.Message
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok && s != "body" {
		return s
	}
	return ""
}
