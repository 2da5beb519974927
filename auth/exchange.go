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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseSize limits how much of a token endpoint response is read.
const maxResponseSize = 1 << 20

// TokenResponse is the JSON body of a successful token endpoint response,
// as defined by RFC 6749 Section 5.1 and RFC 8693 Section 2.2.1.
type TokenResponse struct {
	AccessToken     string `json:"access_token"`
	IssuedTokenType string `json:"issued_token_type,omitempty"`
	TokenType       string `json:"token_type"`
	ExpiresIn       int64  `json:"expires_in"`
	Scope           string `json:"scope,omitempty"`
	RefreshToken    string `json:"refresh_token,omitempty"`
}

// Token converts the response into an AccessToken relative to the current
// time.
func (r *TokenResponse) Token() (*AccessToken, error) {
	if r.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	if r.ExpiresIn <= 0 {
		return nil, fmt.Errorf("token response missing expires_in")
	}
	var scopes []string
	if r.Scope != "" {
		scopes = strings.Fields(r.Scope)
	}
	return &AccessToken{
		Value:     r.AccessToken,
		TokenType: r.TokenType,
		ExpiresAt: time.Now().Add(time.Duration(r.ExpiresIn) * time.Second),
		Scopes:    scopes,
	}, nil
}

type exchangeOptions struct {
	basicAuthUser string
	basicAuthPass string
	useBasicAuth  bool
	headers       http.Header
}

// ExchangeOption configures a call to Exchange.
type ExchangeOption func(*exchangeOptions)

// WithBasicAuth authenticates the client to the token endpoint with the
// given id and secret.
func WithBasicAuth(clientID, clientSecret string) ExchangeOption {
	return func(o *exchangeOptions) {
		o.basicAuthUser = clientID
		o.basicAuthPass = clientSecret
		o.useBasicAuth = true
	}
}

// WithHeaders sets extra headers on the token endpoint request.
func WithHeaders(headers http.Header) ExchangeOption {
	return func(o *exchangeOptions) {
		o.headers = headers
	}
}

// Exchange submits the given grant parameters to the token endpoint and
// parses the response. A rejection by the endpoint is returned as an
// *OAuthError, which matches ErrInvalidGrant for 4xx responses. Transient
// transport failures are retried by the HTTP client, not here.
func Exchange(ctx context.Context, client *http.Client, tokenURL string,
	params url.Values, opts ...ExchangeOption) (*TokenResponse, error) {

	var o exchangeOptions
	for _, opt := range opts {
		opt(&o)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL,
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, vals := range o.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if o.useBasicAuth {
		req.SetBasicAuth(o.basicAuthUser, o.basicAuthPass)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach token endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read token endpoint response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		oauthErr := &OAuthError{StatusCode: resp.StatusCode}
		// The body is best-effort, endpoints are not required to return
		// a parsable error document.
		_ = json.Unmarshal(body, oauthErr)
		return nil, oauthErr
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token endpoint response: %w", err)
	}
	return &tokenResp, nil
}
