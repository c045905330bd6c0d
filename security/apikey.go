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
	"crypto/subtle"
	"log/slog"
)

// ApiKeyLocation is where the ApiKey provider reads the key from.
type ApiKeyLocation string

const (
	ApiKeyHeader ApiKeyLocation = "header"
	ApiKeyQuery  ApiKeyLocation = "query"
	ApiKeyCookie ApiKeyLocation = "cookie"
)

// ApiKey validates a static, pre-shared key read from a header, query
// parameter, or cookie (§4.4). Comparison is constant-time, grounded on
// the teacher's basicauth.go discipline
// (crypto/subtle.ConstantTimeCompare) to avoid timing side-channels.
type ApiKey struct {
	Location ApiKeyLocation
	Name     string
	Keys     map[string]Principal // accepted key -> resolved principal
	Logger   *slog.Logger
}

func (a *ApiKey) Validate(_ context.Context, req RequestView, requiredScopes []string) (Principal, error) {
	var presented string
	switch a.Location {
	case ApiKeyHeader:
		presented = req.Header.Get(a.Name)
	case ApiKeyQuery:
		presented = req.Query(a.Name)
	case ApiKeyCookie:
		presented, _ = req.Cookie(a.Name)
	}

	if presented == "" {
		return Principal{}, newAuthError(AuthMissing, "no api key presented")
	}

	for key, principal := range a.Keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(presented)) == 1 {
			if !principal.HasScopes(requiredScopes) {
				return Principal{}, newAuthError(AuthInsufficientScope, "api key lacks required scopes")
			}
			return principal, nil
		}
	}

	a.log().Debug("security: api key rejected", "prefix", credentialPrefix(presented))
	return Principal{}, newAuthError(AuthInvalid, "api key not recognized")
}

func (a *ApiKey) log() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
