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

package externalaccount

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tokenmint/pkg/auth"
	"github.com/tokenmint/pkg/masktoken"
)

const (
	tokenExchangeGrantType = "urn:ietf:params:oauth:grant-type:token-exchange"
	accessTokenType        = "urn:ietf:params:oauth:token-type:access_token"

	// iamScope is the scope requested on the STS token used for service
	// account impersonation.
	iamScope = "https://www.googleapis.com/auth/iam"

	// impersonatedTokenLifetime is the lifetime requested for
	// impersonated access tokens.
	impersonatedTokenLifetime = "3600s"
)

// Refresh implements auth.Credential.
func (c *Credential) Refresh(ctx context.Context, opts ...auth.Option) (auth.Token, error) {
	var o auth.Options
	o.Apply(opts...)

	scopes := o.Scopes
	if len(scopes) == 0 {
		scopes = c.scopes
	}

	client, err := o.GetHTTPClient()
	if err != nil {
		return nil, err
	}

	subjectToken, err := c.retrieveSubjectToken(ctx, client)
	if err != nil {
		return nil, err
	}

	tokenURL := o.STSEndpoint
	if tokenURL == "" {
		tokenURL = c.conf.TokenURL
	}

	// With impersonation the STS token is only used to call the
	// impersonation endpoint, so the IAM scope is requested instead of
	// the final scopes.
	stsScopes := scopes
	if c.conf.ServiceAccountImpersonationURL != "" {
		stsScopes = []string{iamScope}
	}

	stsToken, err := c.exchangeSubjectToken(ctx, client, tokenURL, subjectToken, stsScopes)
	if err != nil {
		return nil, err
	}

	if c.conf.ServiceAccountImpersonationURL == "" {
		return stsToken, nil
	}
	return c.impersonate(ctx, client, stsToken, scopes)
}

// exchangeSubjectToken performs the STS token exchange of RFC 8693.
func (c *Credential) exchangeSubjectToken(ctx context.Context, client *http.Client,
	tokenURL, subjectToken string, scopes []string) (*auth.AccessToken, error) {

	params := url.Values{}
	params.Set("grant_type", tokenExchangeGrantType)
	params.Set("requested_token_type", accessTokenType)
	params.Set("audience", c.conf.Audience)
	params.Set("subject_token", subjectToken)
	params.Set("subject_token_type", c.conf.SubjectTokenType)
	if len(scopes) > 0 {
		params.Set("scope", strings.Join(scopes, " "))
	}

	var eopts []auth.ExchangeOption
	if c.conf.ClientID != "" && c.conf.ClientSecret != "" {
		eopts = append(eopts, auth.WithBasicAuth(c.conf.ClientID, c.conf.ClientSecret))
	}

	resp, err := auth.Exchange(ctx, client, tokenURL, params, eopts...)
	if err != nil {
		// Grant rejections keep their identity for the caller. Anything
		// else may echo the submitted subject token and is redacted.
		if errors.Is(err, auth.ErrInvalidGrant) {
			return nil, err
		}
		return nil, masktoken.MaskTokenFromError(err, subjectToken)
	}
	return resp.Token()
}

// impersonatedTokenResponse is the body of a generateAccessToken-style
// impersonation response.
type impersonatedTokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpireTime  string `json:"expireTime"`
}

// impersonate trades the STS token for an access token of the target
// service account.
func (c *Credential) impersonate(ctx context.Context, client *http.Client,
	stsToken *auth.AccessToken, scopes []string) (auth.Token, error) {

	reqBody, err := json.Marshal(map[string]any{
		"scope":    scopes,
		"lifetime": impersonatedTokenLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode impersonation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.conf.ServiceAccountImpersonationURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create impersonation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", stsToken.AuthorizationHeader())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach impersonation endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSubjectTokenSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read impersonation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		oauthErr := &auth.OAuthError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, oauthErr)
		return nil, fmt.Errorf("impersonation failed: %w", oauthErr)
	}

	var tokenResp impersonatedTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse impersonation response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("impersonation response missing accessToken")
	}
	expiresAt, err := time.Parse(time.RFC3339, tokenResp.ExpireTime)
	if err != nil {
		return nil, fmt.Errorf("failed to parse impersonation response expireTime: %w", err)
	}

	return &auth.AccessToken{
		Value:     tokenResp.AccessToken,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	}, nil
}
