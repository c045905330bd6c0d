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
	"fmt"
)

// SchemeRequirement is one (scheme, scopes) pair within an alternative.
type SchemeRequirement struct {
	Scheme string
	Scopes []string
}

// Alternative is an AND of SchemeRequirements: every one must succeed
// for the alternative to grant access.
type Alternative []SchemeRequirement

// Registry resolves a scheme name to its Provider. The loader validates
// scheme names at spec-load time, so a lookup miss here is an internal
// invariant violation, not a client error (§4.4 "fail fast with 500").
type Registry interface {
	Provider(scheme string) (Provider, bool)
}

// MapRegistry is the simplest Registry: a static map of scheme name to
// Provider, sufficient for a single process with a fixed provider set.
type MapRegistry map[string]Provider

func (m MapRegistry) Provider(scheme string) (Provider, bool) {
	p, ok := m[scheme]
	return p, ok
}

// UnknownSchemeError signals a scheme name with no registered provider.
// Per §4.4 this should be unreachable if the loader validated the spec;
// surfacing it distinctly lets callers map it to 500 rather than 401/403.
type UnknownSchemeError struct {
	Scheme string
}

func (e *UnknownSchemeError) Error() string {
	return fmt.Sprintf("security: no provider registered for scheme %q", e.Scheme)
}

// Outcome is the result of composing security requirements: either an
// allowed Principal, or the strongest failure and the alternative whose
// scheme should seed the WWW-Authenticate header.
type Outcome struct {
	Principal       Principal
	Allowed         bool
	FailureKind     AuthErrorKind
	ChallengeScheme string
}

// Evaluate enforces §4.4's OR-of-alternatives / AND-of-schemes algorithm.
// An empty requirement list allows unconditionally.
func Evaluate(ctx context.Context, reg Registry, req RequestView, requirements []Alternative) (Outcome, error) {
	if len(requirements) == 0 {
		return Outcome{Allowed: true}, nil
	}

	var bestKind AuthErrorKind
	var bestScheme string
	haveFailure := false

	for _, alt := range requirements {
		principal, kind, scheme, err := evaluateAlternative(ctx, reg, req, alt)
		if err != nil {
			return Outcome{}, err
		}
		if kind == "" {
			return Outcome{Principal: principal, Allowed: true}, nil
		}
		if !haveFailure || severity(kind) > severity(bestKind) {
			bestKind = kind
			bestScheme = scheme
			haveFailure = true
		}
	}

	return Outcome{Allowed: false, FailureKind: bestKind, ChallengeScheme: bestScheme}, nil
}

// evaluateAlternative runs every scheme requirement in alt. It returns a
// zero-value kind ("") on success, otherwise the failure kind + the
// scheme name that produced it.
func evaluateAlternative(ctx context.Context, reg Registry, req RequestView, alt Alternative) (Principal, AuthErrorKind, string, error) {
	var principal Principal
	for _, sr := range alt {
		provider, ok := reg.Provider(sr.Scheme)
		if !ok {
			return Principal{}, "", "", &UnknownSchemeError{Scheme: sr.Scheme}
		}
		p, err := provider.Validate(ctx, req, sr.Scopes)
		if err != nil {
			kind := AuthInvalid
			var authErr *AuthError
			if errors.As(err, &authErr) {
				kind = authErr.Kind
			}
			return Principal{}, kind, sr.Scheme, nil
		}
		principal = p
	}
	return principal, "", "", nil
}

// severity ranks failure kinds so the strongest one wins when multiple
// alternatives fail (§4.4: "403 > 401").
func severity(kind AuthErrorKind) int {
	switch kind {
	case AuthInsufficientScope:
		return 3 // maps to 403
	case AuthProviderUnavailable:
		return 2 // maps to 503
	case AuthExpired, AuthInvalid, AuthMissing:
		return 1 // maps to 401
	default:
		return 0
	}
}

// StatusFor maps a failure kind to the HTTP status the service layer
// should write (§4.4, §7).
func StatusFor(kind AuthErrorKind) int {
	switch kind {
	case AuthInsufficientScope:
		return 403
	case AuthProviderUnavailable:
		return 503
	default:
		return 401
	}
}

// Challenge builds a WWW-Authenticate header value advertising scheme,
// per §4.4 "a WWW-Authenticate header that advertises one alternative".
func Challenge(scheme string) string {
	if scheme == "" {
		return ""
	}
	return fmt.Sprintf(`%s realm="api"`, scheme)
}
