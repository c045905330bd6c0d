// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package security

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
)

// AuthErrorKind classifies why a provider rejected a request (§4.4).
type AuthErrorKind string

const (
	AuthMissing             AuthErrorKind = "missing"
	AuthInvalid             AuthErrorKind = "invalid"
	AuthExpired             AuthErrorKind = "expired"
	AuthInsufficientScope   AuthErrorKind = "insufficient_scope"
	AuthProviderUnavailable AuthErrorKind = "provider_unavailable"
)

// AuthError is the error type every Provider returns on failure.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
}

func (e *AuthError) Error() string { return string(e.Kind) + ": " + e.Message }

func newAuthError(kind AuthErrorKind, msg string) *AuthError {
	return &AuthError{Kind: kind, Message: msg}
}

// RequestView is the minimal read-only view of an inbound request a
// Provider needs. It deliberately exposes less than *http.Request so
// providers can't accidentally consume the body or mutate state shared
// with the dispatch pipeline.
type RequestView struct {
	Header http.Header
	Query  func(name string) string
	Cookie func(name string) (string, bool)
}

// Principal is whatever a provider resolves a credential to: at minimum
// its granted scopes, plus provider-specific extra claims.
type Principal struct {
	Subject string
	Scopes  []string
	Extra   map[string]any
}

// HasScopes reports whether every scope in required is present.
func (p Principal) HasScopes(required []string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]bool, len(p.Scopes))
	for _, s := range p.Scopes {
		have[s] = true
	}
	for _, s := range required {
		if !have[s] {
			return false
		}
	}
	return true
}

// Provider validates one security scheme against an inbound request
// (§4.4). Implementations must be safe for concurrent use.
type Provider interface {
	Validate(ctx context.Context, req RequestView, requiredScopes []string) (Principal, error)
}

// isNetworkError reports whether err is a transport-level failure talking
// to a remote verify/introspection endpoint — a dial failure, a timeout,
// or the calling context's deadline/cancellation — rather than the
// endpoint having actively rejected the credential (§4.4: these count as
// AuthProviderUnavailable even before the circuit breaker has tripped,
// the same as an open breaker does once it has).
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// credentialPrefix returns a loggable, non-sensitive prefix of a secret
// (§4.4 "Providers never log full credentials; only a 4-char prefix").
func credentialPrefix(secret string) string {
	if len(secret) <= 4 {
		return secret
	}
	return secret[:4]
}
