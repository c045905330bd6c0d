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

package service

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/microscaler/brrtrouter/dispatch"
	"github.com/microscaler/brrtrouter/security"
	"github.com/microscaler/brrtrouter/spec"
	"github.com/microscaler/brrtrouter/validator"
)

func (s *Service) readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// authorize runs §4.4's composition against route.Security. A nil error
// and a possibly-empty Principal mean "allowed".
func (s *Service) authorize(r *http.Request, route *spec.RouteMeta) (security.Principal, error) {
	if len(route.Security) == 0 {
		return security.Principal{}, nil
	}

	alternatives := make([]security.Alternative, 0, len(route.Security))
	for _, alt := range route.Security {
		schemes := make(security.Alternative, 0, len(alt.Schemes))
		for _, sc := range alt.Schemes {
			schemes = append(schemes, security.SchemeRequirement{Scheme: sc.SchemeName, Scopes: sc.Scopes})
		}
		alternatives = append(alternatives, schemes)
	}

	view := security.RequestView{
		Header: r.Header,
		Query:  r.URL.Query().Get,
		Cookie: func(name string) (string, bool) {
			c, err := r.Cookie(name)
			if err != nil {
				return "", false
			}
			return c.Value, true
		},
	}

	outcome, err := security.Evaluate(r.Context(), s.Security, view, alternatives)
	if err != nil {
		return security.Principal{}, err
	}
	if !outcome.Allowed {
		return security.Principal{}, &authDenied{outcome: outcome}
	}
	return outcome.Principal, nil
}

// authDenied carries the composed Outcome through to the response writer
// so it can set WWW-Authenticate and pick the right status/kind.
type authDenied struct {
	outcome security.Outcome
}

func (e *authDenied) Error() string { return "service: authorization denied" }

func (s *Service) writeAuthError(w http.ResponseWriter, err error) {
	var unknown *security.UnknownSchemeError
	if errors.As(err, &unknown) {
		s.Logger.Error("service: route references unregistered security scheme", "scheme", unknown.Scheme)
		s.writeError(w, KindUnknownHandler, "internal server error")
		return
	}

	var denied *authDenied
	if errors.As(err, &denied) {
		if denied.outcome.ChallengeScheme != "" {
			w.Header().Set("WWW-Authenticate", security.Challenge(denied.outcome.ChallengeScheme))
		}
		kind := kindForAuthFailure(denied.outcome.FailureKind)
		s.writeError(w, kind, "authorization failed")
		return
	}

	s.writeError(w, KindAuthInvalid, "authorization failed")
}

func kindForAuthFailure(k security.AuthErrorKind) ErrorKind {
	switch k {
	case security.AuthInsufficientScope:
		return KindInsufficientScope
	case security.AuthProviderUnavailable:
		return KindProviderUnavailable
	case security.AuthMissing:
		return KindAuthMissing
	default:
		return KindAuthInvalid
	}
}

func (s *Service) writeDispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dispatch.ErrUnknownHandler):
		s.Logger.Error("service: matched route has no registered handler", "error", err)
		s.writeError(w, KindUnknownHandler, "internal server error")
	case errors.Is(err, dispatch.ErrBackpressure):
		w.Header().Set("Retry-After", "1")
		s.writeError(w, KindBackpressureShed, "server is at capacity, try again shortly")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.Logger.Info("service: client disconnected before handler replied")
	default:
		s.Logger.Error("service: dispatch failed", "error", err)
		s.writeError(w, KindHandlerPanic, "internal server error")
	}
}

func (s *Service) writeError(w http.ResponseWriter, kind ErrorKind, message string) {
	s.writeValidationError(w, kind, message, nil)
}

func (s *Service) writeValidationError(w http.ResponseWriter, kind ErrorKind, message string, errs []validator.FieldError) {
	details := make([]FieldDetail, 0, len(errs))
	for _, e := range errs {
		details = append(details, FieldDetail{Path: e.Path, Message: e.Message})
	}
	body := NewValidationErrorBody(kind, message, details)

	status := StatusFor(kind)
	if status >= 500 {
		s.Logger.Error("service: request failed", "kind", kind, "message", message)
	} else {
		s.Logger.Warn("service: request rejected", "kind", kind, "message", message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body.json())
}

func (s *Service) writeResponse(w http.ResponseWriter, resp *dispatch.HandlerResponse, _ security.Principal) {
	for key, values := range resp.Headers {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	if w.Header().Get("Content-Type") == "" && len(resp.Body) > 0 {
		w.Header().Set("Content-Type", "application/json")
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}
