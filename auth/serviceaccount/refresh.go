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

package serviceaccount

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tokenmint/pkg/auth"
)

// grantType is the JWT-bearer authorization grant of RFC 7523.
const grantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// assertionLifetime is the validity claimed in signed assertions and
// self-signed JWT access tokens.
const assertionLifetime = time.Hour

// Refresh implements auth.Credential.
func (c *Credential) Refresh(ctx context.Context, opts ...auth.Option) (auth.Token, error) {
	var o auth.Options
	o.Apply(opts...)

	scopes := o.Scopes
	if len(scopes) == 0 {
		scopes = c.scopes
	}

	if c.audience != "" {
		return c.selfSignedToken()
	}

	tokenURL := o.STSEndpoint
	if tokenURL == "" {
		tokenURL = c.key.TokenURI
	}

	assertion, err := c.signAssertion(tokenURL, scopes)
	if err != nil {
		return nil, err
	}

	client, err := o.GetHTTPClient()
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("grant_type", grantType)
	params.Set("assertion", assertion)

	resp, err := auth.Exchange(ctx, client, tokenURL, params)
	if err != nil {
		return nil, err
	}
	return resp.Token()
}

// signAssertion signs the JWT assertion submitted to the token endpoint.
// The audience of the assertion is the token endpoint itself.
func (c *Credential) signAssertion(tokenURL string, scopes []string) (string, error) {
	now := time.Now()
	sub := c.subject
	if sub == "" {
		sub = c.key.ClientEmail
	}
	claims := jwt.MapClaims{
		"iss":   c.key.ClientEmail,
		"sub":   sub,
		"aud":   tokenURL,
		"scope": strings.Join(scopes, " "),
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}
	return c.sign(claims)
}

// selfSignedToken mints a self-signed JWT access token for the configured
// audience. No exchange takes place, the remote service verifies the
// signature against the registered public key.
func (c *Credential) selfSignedToken() (auth.Token, error) {
	now := time.Now()
	expiresAt := now.Add(assertionLifetime)
	claims := jwt.MapClaims{
		"iss": c.key.ClientEmail,
		"sub": c.key.ClientEmail,
		"aud": c.audience,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	signed, err := c.sign(claims)
	if err != nil {
		return nil, err
	}
	return &auth.AccessToken{
		Value:     signed,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	}, nil
}

func (c *Credential) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if c.key.PrivateKeyID != "" {
		token.Header["kid"] = c.key.PrivateKeyID
	}
	return token.SignedString(c.privateKey)
}
