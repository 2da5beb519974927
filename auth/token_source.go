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
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// TokenSource returns an oauth2.TokenSource that mints tokens for the given
// credential through GetAccessToken, so credentials from this package can be
// plugged into any oauth2-aware client. The context is used for all token
// acquisitions performed by the source.
func TokenSource(ctx context.Context, cred Credential, opts ...Option) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, cred: cred, opts: opts}
}

type tokenSource struct {
	ctx  context.Context
	cred Credential
	opts []Option
}

// Token implements oauth2.TokenSource.
func (s *tokenSource) Token() (*oauth2.Token, error) {
	token, err := GetAccessToken(s.ctx, s.cred, s.opts...)
	if err != nil {
		return nil, err
	}
	accessToken, ok := token.(*AccessToken)
	if !ok {
		return nil, fmt.Errorf("credential kind %s does not mint bearer access tokens", s.cred.GetKind())
	}
	return &oauth2.Token{
		AccessToken: accessToken.Value,
		TokenType:   accessToken.TokenType,
		Expiry:      accessToken.ExpiresAt,
	}, nil
}
