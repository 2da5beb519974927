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

package userrefresh

import (
	"context"
	"net/url"
	"strings"

	"github.com/tokenmint/pkg/auth"
)

const grantType = "refresh_token"

// Refresh implements auth.Credential.
func (c *Credential) Refresh(ctx context.Context, opts ...auth.Option) (auth.Token, error) {
	var o auth.Options
	o.Apply(opts...)

	scopes := o.Scopes
	if len(scopes) == 0 {
		scopes = c.scopes
	}

	tokenURL := o.STSEndpoint
	if tokenURL == "" {
		tokenURL = c.key.TokenURI
	}

	client, err := o.GetHTTPClient()
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("grant_type", grantType)
	params.Set("client_id", c.key.ClientID)
	params.Set("client_secret", c.key.ClientSecret)
	params.Set("refresh_token", c.key.RefreshToken)
	if len(scopes) > 0 {
		params.Set("scope", strings.Join(scopes, " "))
	}

	resp, err := auth.Exchange(ctx, client, tokenURL, params)
	if err != nil {
		return nil, err
	}

	// A rotated refresh token supersedes the one we hold, but the
	// credential stays immutable. Persisting the rotation is the
	// caller's concern.
	if resp.RefreshToken != "" && resp.RefreshToken != c.key.RefreshToken && c.onRotation != nil {
		c.onRotation(resp.RefreshToken)
	}

	return resp.Token()
}
