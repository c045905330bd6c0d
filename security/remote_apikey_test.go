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
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func remoteReq(key string) RequestView {
	h := make(http.Header)
	if key != "" {
		h.Set("X-Api-Key", key)
	}
	return RequestView{Header: h}
}

func TestRemoteApiKey_ValidKeyGrantsPrincipal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"subject":"svc-1","scopes":["read","write"]}`))
	}))
	defer srv.Close()

	p := NewRemoteApiKey(srv.URL, time.Minute)
	principal, err := p.Validate(context.Background(), remoteReq("secret"), []string{"read"})
	require.NoError(t, err)
	require.Equal(t, "svc-1", principal.Subject)
}

func TestRemoteApiKey_CachesVerdict(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"subject":"svc-1","scopes":[]}`))
	}))
	defer srv.Close()

	p := NewRemoteApiKey(srv.URL, time.Minute)
	_, err := p.Validate(context.Background(), remoteReq("secret"), nil)
	require.NoError(t, err)
	_, err = p.Validate(context.Background(), remoteReq("secret"), nil)
	require.NoError(t, err)

	require.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestRemoteApiKey_MissingKey(t *testing.T) {
	p := NewRemoteApiKey("http://unused.invalid", time.Minute)
	_, err := p.Validate(context.Background(), remoteReq(""), nil)
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, AuthMissing, authErr.Kind)
}

func TestRemoteApiKey_ServiceErrorRejectsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewRemoteApiKey(srv.URL, time.Minute)
	_, err := p.Validate(context.Background(), remoteReq("bad-key"), nil)
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, AuthInvalid, authErr.Kind)
}

func TestRemoteApiKey_RequestTimeoutReportsProviderUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	p := NewRemoteApiKey(srv.URL, time.Minute)
	p.Client = &http.Client{Timeout: 10 * time.Millisecond}

	_, err := p.Validate(context.Background(), remoteReq("secret"), nil)
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, AuthProviderUnavailable, authErr.Kind)
}

func TestRemoteApiKey_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewRemoteApiKey(srv.URL, time.Minute)
	for i := 0; i < 5; i++ {
		key := "k" // a distinct key per call, so each call reaches the verify endpoint
		_, _ = p.Validate(context.Background(), remoteReq(key+string(rune('a'+i))), nil)
	}

	_, err := p.Validate(context.Background(), remoteReq("zz"), nil)
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, AuthProviderUnavailable, authErr.Kind)
}
