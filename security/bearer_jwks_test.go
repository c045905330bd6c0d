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
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	key   *rsa.PublicKey
	calls int64
	err   error
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) (*rsa.PublicKey, error) {
	atomic.AddInt64(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.key, nil
}

func signToken(t *testing.T, priv *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	signed, err := tok.SignedString(priv)
	require.NoError(t, err)
	return signed
}

func bearerReq(token string) RequestView {
	h := make(http.Header)
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return RequestView{Header: h}
}

func TestBearerJwks_ValidTokenGrantsPrincipal(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	fetcher := &stubFetcher{key: &priv.PublicKey}
	p := NewBearerJwks(fetcher, time.Minute)

	token := signToken(t, priv, "key-1", jwt.MapClaims{
		"sub":   "user-1",
		"scope": "read write",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	principal, err := p.Validate(context.Background(), bearerReq(token), []string{"read"})
	require.NoError(t, err)
	require.Equal(t, "user-1", principal.Subject)
	require.ElementsMatch(t, []string{"read", "write"}, principal.Scopes)
}

func TestBearerJwks_KeyCachedAcrossCalls(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	fetcher := &stubFetcher{key: &priv.PublicKey}
	p := NewBearerJwks(fetcher, time.Minute)

	token := signToken(t, priv, "key-1", jwt.MapClaims{"sub": "u", "exp": time.Now().Add(time.Hour).Unix()})

	_, err = p.Validate(context.Background(), bearerReq(token), nil)
	require.NoError(t, err)
	_, err = p.Validate(context.Background(), bearerReq(token), nil)
	require.NoError(t, err)

	require.Equal(t, int64(1), atomic.LoadInt64(&fetcher.calls))
}

func TestBearerJwks_ExpiredTokenRejected(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	fetcher := &stubFetcher{key: &priv.PublicKey}
	p := NewBearerJwks(fetcher, time.Minute)

	token := signToken(t, priv, "key-1", jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Hour).Unix()})

	_, err = p.Validate(context.Background(), bearerReq(token), nil)
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, AuthExpired, authErr.Kind)
}

func TestBearerJwks_MissingAuthorizationHeader(t *testing.T) {
	p := NewBearerJwks(&stubFetcher{}, time.Minute)
	_, err := p.Validate(context.Background(), bearerReq(""), nil)
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, AuthMissing, authErr.Kind)
}

func TestBearerJwks_InsufficientScopeRejected(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	fetcher := &stubFetcher{key: &priv.PublicKey}
	p := NewBearerJwks(fetcher, time.Minute)

	token := signToken(t, priv, "key-1", jwt.MapClaims{
		"sub": "u", "scope": "read", "exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err = p.Validate(context.Background(), bearerReq(token), []string{"admin"})
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, AuthInsufficientScope, authErr.Kind)
}
