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
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedProvider struct {
	principal Principal
	err       error
}

func (f *fixedProvider) Validate(_ context.Context, _ RequestView, required []string) (Principal, error) {
	if f.err != nil {
		return Principal{}, f.err
	}
	if !f.principal.HasScopes(required) {
		return Principal{}, newAuthError(AuthInsufficientScope, "missing scope")
	}
	return f.principal, nil
}

func TestEvaluate_EmptyRequirementsAllow(t *testing.T) {
	out, err := Evaluate(context.Background(), MapRegistry{}, RequestView{}, nil)
	require.NoError(t, err)
	require.True(t, out.Allowed)
}

func TestEvaluate_FirstMatchingAlternativeWins(t *testing.T) {
	reg := MapRegistry{
		"key": &fixedProvider{err: newAuthError(AuthMissing, "no key")},
		"jwt": &fixedProvider{principal: Principal{Subject: "u", Scopes: []string{"read"}}},
	}
	reqs := []Alternative{
		{{Scheme: "key"}},
		{{Scheme: "jwt", Scopes: []string{"read"}}},
	}
	out, err := Evaluate(context.Background(), reg, RequestView{}, reqs)
	require.NoError(t, err)
	require.True(t, out.Allowed)
	require.Equal(t, "u", out.Principal.Subject)
}

func TestEvaluate_AndOfSchemesRequiresAll(t *testing.T) {
	reg := MapRegistry{
		"key": &fixedProvider{principal: Principal{Subject: "u"}},
		"jwt": &fixedProvider{err: newAuthError(AuthInvalid, "bad token")},
	}
	reqs := []Alternative{
		{{Scheme: "key"}, {Scheme: "jwt"}},
	}
	out, err := Evaluate(context.Background(), reg, RequestView{}, reqs)
	require.NoError(t, err)
	require.False(t, out.Allowed)
	require.Equal(t, AuthInvalid, out.FailureKind)
}

func TestEvaluate_StrongestFailureWins403Over401(t *testing.T) {
	reg := MapRegistry{
		"key": &fixedProvider{err: newAuthError(AuthMissing, "no key")},
		"jwt": &fixedProvider{principal: Principal{Scopes: []string{"read"}}},
	}
	reqs := []Alternative{
		{{Scheme: "key"}},
		{{Scheme: "jwt", Scopes: []string{"admin"}}},
	}
	out, err := Evaluate(context.Background(), reg, RequestView{}, reqs)
	require.NoError(t, err)
	require.False(t, out.Allowed)
	require.Equal(t, AuthInsufficientScope, out.FailureKind)
	require.Equal(t, 403, StatusFor(out.FailureKind))
}

func TestEvaluate_UnknownSchemeIsInternalError(t *testing.T) {
	reg := MapRegistry{}
	reqs := []Alternative{{{Scheme: "ghost"}}}
	_, err := Evaluate(context.Background(), reg, RequestView{}, reqs)
	require.Error(t, err)
	var unknown *UnknownSchemeError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "ghost", unknown.Scheme)
}

func TestChallenge_AdvertisesScheme(t *testing.T) {
	require.Equal(t, `bearer realm="api"`, Challenge("bearer"))
	require.Equal(t, "", Challenge(""))
}

func TestStatusFor_MapsKindsToStatus(t *testing.T) {
	require.Equal(t, 401, StatusFor(AuthMissing))
	require.Equal(t, 401, StatusFor(AuthInvalid))
	require.Equal(t, 401, StatusFor(AuthExpired))
	require.Equal(t, 403, StatusFor(AuthInsufficientScope))
	require.Equal(t, 503, StatusFor(AuthProviderUnavailable))
}
