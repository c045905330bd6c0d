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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sony/gobreaker"
)

// RemoteVerifyResponse is the JSON body the verify endpoint returns for
// an accepted key.
type RemoteVerifyResponse struct {
	Subject string   `json:"subject"`
	Scopes  []string `json:"scopes"`
}

// RemoteApiKey validates an API key by calling an external verify
// endpoint, per §4.4. A successful verdict is cached for TTL keyed by a
// hash of the presented key (never the raw key, to keep the cache safe
// to inspect); repeated failures trip a circuit breaker so an unhealthy
// verify service degrades to AuthProviderUnavailable instead of hanging
// every request.
type RemoteApiKey struct {
	VerifyURL string
	Header    string // header the key is read from, default "X-Api-Key"
	Client    *http.Client
	Logger    *slog.Logger

	breaker *gobreaker.CircuitBreaker
	cache   *lru.LRU[string, Principal]
}

// NewRemoteApiKey constructs a RemoteApiKey provider with its cache and
// circuit breaker initialized.
func NewRemoteApiKey(verifyURL string, ttl time.Duration) *RemoteApiKey {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:    "remote_apikey",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &RemoteApiKey{
		VerifyURL: verifyURL,
		Header:    "X-Api-Key",
		Client:    http.DefaultClient,
		breaker:   gobreaker.NewCircuitBreaker(settings),
		cache:     lru.NewLRU[string, Principal](1024, nil, ttl),
	}
}

func (r *RemoteApiKey) Validate(ctx context.Context, req RequestView, requiredScopes []string) (Principal, error) {
	header := r.Header
	if header == "" {
		header = "X-Api-Key"
	}
	presented := req.Header.Get(header)
	if presented == "" {
		return Principal{}, newAuthError(AuthMissing, "no api key presented")
	}

	cacheKey := hashKey(presented)
	if principal, ok := r.cache.Get(cacheKey); ok {
		if !principal.HasScopes(requiredScopes) {
			return Principal{}, newAuthError(AuthInsufficientScope, "api key lacks required scopes")
		}
		return principal, nil
	}

	result, err := r.breaker.Execute(func() (any, error) {
		return r.callVerify(ctx, presented)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests || isNetworkError(err) {
			return Principal{}, newAuthError(AuthProviderUnavailable, "verify service unavailable")
		}
		r.log().Debug("security: remote api key rejected", "prefix", credentialPrefix(presented), "error", err)
		return Principal{}, newAuthError(AuthInvalid, "api key not recognized")
	}

	principal := result.(Principal)
	r.cache.Add(cacheKey, principal)
	if !principal.HasScopes(requiredScopes) {
		return Principal{}, newAuthError(AuthInsufficientScope, "api key lacks required scopes")
	}
	return principal, nil
}

func (r *RemoteApiKey) callVerify(ctx context.Context, key string) (Principal, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.VerifyURL, nil)
	if err != nil {
		return Principal{}, fmt.Errorf("security: building verify request: %w", err)
	}
	httpReq.Header.Set(r.headerOrDefault(), key)

	resp, err := r.Client.Do(httpReq)
	if err != nil {
		return Principal{}, fmt.Errorf("security: calling verify endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Principal{}, fmt.Errorf("security: verify endpoint returned status %d", resp.StatusCode)
	}

	var body RemoteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Principal{}, fmt.Errorf("security: decoding verify response: %w", err)
	}
	return Principal{Subject: body.Subject, Scopes: body.Scopes}, nil
}

func (r *RemoteApiKey) headerOrDefault() string {
	if r.Header != "" {
		return r.Header
	}
	return "X-Api-Key"
}

func (r *RemoteApiKey) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
