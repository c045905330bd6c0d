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
	"crypto/rsa"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sethvargo/go-retry"
)

// JWKSFetcher retrieves a JSON Web Key Set for a given key id. It is an
// interface so tests can stub it without a network round-trip; the
// production implementation fetches and parses an HTTP JWKS endpoint.
type JWKSFetcher interface {
	Fetch(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// BearerJwks validates an RFC 6750 bearer token whose signature is
// verified against a JWKS-sourced key, looked up by the token's "kid"
// header (§4.4). Keys are cached with a TTL and refreshed on a cache
// miss, with one retry per §4.4 ("retry-on-miss once").
type BearerJwks struct {
	Fetcher     JWKSFetcher
	ScopeClaim  string // claim name carrying space-delimited scopes, default "scope"
	TTL         time.Duration
	Logger      *slog.Logger

	keys *lru.LRU[string, *rsa.PublicKey]
}

// NewBearerJwks constructs a BearerJwks provider with its TTL'd key
// cache initialized. TTL defaults to 10 minutes if zero.
func NewBearerJwks(fetcher JWKSFetcher, ttl time.Duration) *BearerJwks {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &BearerJwks{
		Fetcher:    fetcher,
		ScopeClaim: "scope",
		TTL:        ttl,
		keys:       lru.NewLRU[string, *rsa.PublicKey](256, nil, ttl),
	}
}

func (b *BearerJwks) Validate(ctx context.Context, req RequestView, requiredScopes []string) (Principal, error) {
	raw := req.Header.Get("Authorization")
	if raw == "" {
		return Principal{}, newAuthError(AuthMissing, "no authorization header")
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(raw, prefix) {
		return Principal{}, newAuthError(AuthInvalid, "authorization header is not a bearer token")
	}
	raw = strings.TrimPrefix(raw, prefix)

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return b.keyFor(ctx, kid)
	}, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}))

	b.log().Debug("security: bearer token presented", "prefix", credentialPrefix(raw))

	if err != nil {
		if strings.Contains(err.Error(), "expired") {
			return Principal{}, newAuthError(AuthExpired, "token expired")
		}
		return Principal{}, newAuthError(AuthInvalid, err.Error())
	}
	if !token.Valid {
		return Principal{}, newAuthError(AuthInvalid, "token signature invalid")
	}

	sub, _ := claims["sub"].(string)
	scopes := scopesFromClaim(claims, b.scopeClaim())

	principal := Principal{Subject: sub, Scopes: scopes, Extra: claims}
	if !principal.HasScopes(requiredScopes) {
		return Principal{}, newAuthError(AuthInsufficientScope, "token lacks required scopes")
	}
	return principal, nil
}

// keyFor resolves the RSA public key for kid, serving from the TTL
// cache when possible and retrying the fetch once on a miss (§4.4).
func (b *BearerJwks) keyFor(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, fmt.Errorf("security: token has no kid header")
	}
	if key, ok := b.keys.Get(kid); ok {
		return key, nil
	}

	var key *rsa.PublicKey
	backoff := retry.WithMaxRetries(1, retry.NewConstant(50*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		k, err := b.Fetcher.Fetch(ctx, kid)
		if err != nil {
			return retry.RetryableError(err)
		}
		key = k
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("security: jwks fetch for kid %q: %w", kid, err)
	}

	b.keys.Add(kid, key)
	return key, nil
}

func (b *BearerJwks) scopeClaim() string {
	if b.ScopeClaim != "" {
		return b.ScopeClaim
	}
	return "scope"
}

func (b *BearerJwks) log() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func scopesFromClaim(claims jwt.MapClaims, claimName string) []string {
	switch v := claims[claimName].(type) {
	case string:
		return strings.Fields(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if str, ok := s.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// httpJWKSFetcher is the production JWKSFetcher: it fetches a standard
// JWKS document over HTTP and extracts the RSA key matching kid.
// Kept minimal — full JWK set parsing (EC/OKP keys, x5c chains) is left
// to a richer client if a deployment needs it; this covers the common
// RS256 case §4.4 describes.
type httpJWKSFetcher struct {
	URL    string
	Client *http.Client
}

// NewHTTPJWKSFetcher returns a JWKSFetcher backed by an HTTP GET to url.
func NewHTTPJWKSFetcher(url string, client *http.Client) JWKSFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpJWKSFetcher{URL: url, Client: client}
}

func (f *httpJWKSFetcher) Fetch(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	return fetchJWKSKey(ctx, f.Client, f.URL, kid)
}
