/*
Copyright 2025 The Tokenmint authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package auth

import (
	"fmt"
	"time"
)

// Token is an interface that represents an access token that can be used
// to authenticate requests against a remote service. The only common
// method is for getting the duration of the token, because different
// credential kinds may represent the token differently. Consumers of this
// interface should know what type to cast it to.
type Token interface {
	// GetDuration returns the duration for which the token will still be valid
	// relative to approximately time.Now(). This is used to determine when the
	// token should be refreshed.
	GetDuration() time.Duration
}

// AccessToken is an opaque bearer token together with its expiry and the
// scopes it was granted. Tokens are immutable, a refresh produces a new
// AccessToken and supersedes the old one in the cache.
type AccessToken struct {
	// Value is the opaque bearer value presented to the remote service.
	Value string

	// TokenType is the authorization scheme of the token, e.g. "Bearer".
	TokenType string

	// ExpiresAt is the absolute expiry timestamp of the token.
	ExpiresAt time.Time

	// Scopes are the scopes granted by the token-issuing service, which
	// may be narrower than the scopes requested.
	Scopes []string
}

// GetDuration implements Token.
func (t *AccessToken) GetDuration() time.Duration {
	return time.Until(t.ExpiresAt)
}

// AuthorizationHeader returns the value for the Authorization header of
// requests authenticated with this token.
func (t *AccessToken) AuthorizationHeader() string {
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return fmt.Sprintf("%s %s", tokenType, t.Value)
}
