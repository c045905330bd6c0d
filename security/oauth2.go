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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sony/gobreaker"
)

// introspectionResponse is the RFC 7662 token introspection body.
type introspectionResponse struct {
	Active bool   `json:"active"`
	Sub    string `json:"sub"`
	Scope  string `json:"scope"`
	Exp    int64  `json:"exp"`
}

// OAuth2 validates a bearer access token via an RFC 7662 introspection
// endpoint (§4.4). Unlike BearerJwks it does not verify a signature
// locally — it delegates the validity decision to the authorization
// server, which is the right tradeoff when tokens are opaque (not JWTs)
// or must support server-side revocation. Verdicts for active tokens are
// cached by token hash for TTL (rejections are not cached), and the
// introspection call is circuit-broken the same way RemoteApiKey is.
type OAuth2 struct {
	IntrospectionURL string
	ClientID         string
	ClientSecret     string
	Client           *http.Client
	Logger           *slog.Logger

	breaker *gobreaker.CircuitBreaker
	cache   *lru.LRU[string, Principal]
}

// NewOAuth2 constructs an OAuth2 introspection provider.
func NewOAuth2(introspectionURL, clientID, clientSecret string, ttl time.Duration) *OAuth2 {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:    "oauth2_introspect",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &OAuth2{
		IntrospectionURL: introspectionURL,
		ClientID:         clientID,
		ClientSecret:     clientSecret,
		Client:           http.DefaultClient,
		breaker:          gobreaker.NewCircuitBreaker(settings),
		cache:            lru.NewLRU[string, Principal](1024, nil, ttl),
	}
}

func (o *OAuth2) Validate(ctx context.Context, req RequestView, requiredScopes []string) (Principal, error) {
	raw := req.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(raw, prefix) {
		return Principal{}, newAuthError(AuthMissing, "no bearer token presented")
	}
	token := strings.TrimPrefix(raw, prefix)
	if token == "" {
		return Principal{}, newAuthError(AuthMissing, "no bearer token presented")
	}

	cacheKey := hashKey(token)
	if principal, ok := o.cache.Get(cacheKey); ok {
		if !principal.HasScopes(requiredScopes) {
			return Principal{}, newAuthError(AuthInsufficientScope, "token lacks required scopes")
		}
		return principal, nil
	}

	result, err := o.breaker.Execute(func() (any, error) {
		return o.introspect(ctx, token)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests || isNetworkError(err) {
			return Principal{}, newAuthError(AuthProviderUnavailable, "introspection service unavailable")
		}
		o.log().Debug("security: oauth2 token rejected", "prefix", credentialPrefix(token), "error", err)
		return Principal{}, newAuthError(AuthInvalid, "token not active")
	}

	principal := result.(Principal)
	o.cache.Add(cacheKey, principal)
	if !principal.HasScopes(requiredScopes) {
		return Principal{}, newAuthError(AuthInsufficientScope, "token lacks required scopes")
	}
	return principal, nil
}

func (o *OAuth2) introspect(ctx context.Context, token string) (Principal, error) {
	form := url.Values{"token": {token}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.IntrospectionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Principal{}, fmt.Errorf("security: building introspection request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if o.ClientID != "" {
		httpReq.SetBasicAuth(o.ClientID, o.ClientSecret)
	}

	resp, err := o.Client.Do(httpReq)
	if err != nil {
		return Principal{}, fmt.Errorf("security: calling introspection endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Principal{}, fmt.Errorf("security: introspection endpoint returned status %d", resp.StatusCode)
	}

	var body introspectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Principal{}, fmt.Errorf("security: decoding introspection response: %w", err)
	}
	if !body.Active {
		return Principal{}, fmt.Errorf("security: token is not active")
	}
	if body.Exp > 0 && body.Exp < time.Now().Unix() {
		return Principal{}, fmt.Errorf("security: token is expired")
	}

	return Principal{Subject: body.Sub, Scopes: strings.Fields(body.Scope)}, nil
}

func (o *OAuth2) log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
