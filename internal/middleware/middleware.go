// Package middleware provides http.RoundTripper middleware for the API client
package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// RoundTripperFunc adapts a function to http.RoundTripper
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(r)
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Middleware wraps a RoundTripper
type Middleware func(http.RoundTripper) http.RoundTripper

// TokenSource supplies the bearer token of the current session
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() string

// Token calls f()
func (f TokenFunc) Token() string {
	return f()
}

// RequestID tags every outgoing request with a unique id
func RequestID(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get(RequestIDHeader) == "" {
			r = r.Clone(r.Context())
			r.Header.Set(RequestIDHeader, uuid.NewString())
		}
		return next.RoundTrip(r)
	})
}

// BearerAuth attaches the current session token, if any
func BearerAuth(tokens TokenSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if tokens == nil || r.Header.Get("Authorization") != "" {
				return next.RoundTrip(r)
			}
			if token := tokens.Token(); token != "" {
				r = r.Clone(r.Context())
				r.Header.Set("Authorization", "Bearer "+token)
			}
			return next.RoundTrip(r)
		})
	}
}

// Logger logs every request with its status and latency
func Logger(logger *log.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			if err != nil {
				logger.Printf("%s %s failed after %s: %v", r.Method, r.URL.Path, time.Since(start), err)
				return resp, err
			}
			logger.Printf("%s %s %d %s", r.Method, r.URL.Path, resp.StatusCode, time.Since(start))
			return resp, nil
		})
	}
}

// Chain applies middleware in order; the first one sees the request first
func Chain(rt http.RoundTripper, middleware ...Middleware) http.RoundTripper {
	for i := len(middleware) - 1; i >= 0; i-- {
		rt = middleware[i](rt)
	}
	return rt
}
