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

// Package userrefresh implements the authorized user credential. It
// holds a long-lived refresh token obtained through a three-legged
// OAuth flow and exchanges it for short-lived access tokens.
package userrefresh

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tokenmint/pkg/auth"
)

// Kind is the kind of user refresh token credentials.
const Kind = "user-refresh-token"

// KeyType is the expected value of the type field of an authorized
// user file.
const KeyType = "authorized_user"

// defaultTokenEndpoint is the token endpoint used when the file does
// not carry one.
const defaultTokenEndpoint = "https://oauth2.googleapis.com/token"

// Key is the JSON document of an authorized user.
type Key struct {
	Type         string `json:"type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	TokenURI     string `json:"token_uri,omitempty"`
}

// RotationCallback is called when the token endpoint issues a new
// refresh token alongside the access token. The credential itself is
// never mutated, the caller decides whether to persist the rotated
// token and build a new credential from it.
type RotationCallback func(refreshToken string)

// Credential is an immutable authorized user identity. It implements
// auth.Credential.
type Credential struct {
	key        Key
	scopes     []string
	onRotation RotationCallback
}

var _ auth.Credential = &Credential{}

// OptFunc configures the credential at construction.
type OptFunc func(*Credential)

// WithScopes sets the default scopes requested for access tokens.
// Scopes passed on the call to Refresh take precedence.
func WithScopes(scopes ...string) OptFunc {
	return func(c *Credential) {
		c.scopes = append(c.scopes, scopes...)
	}
}

// WithRotationCallback registers a callback for rotated refresh tokens.
func WithRotationCallback(cb RotationCallback) OptFunc {
	return func(c *Credential) {
		c.onRotation = cb
	}
}

// New returns a credential for the given authorized user JSON document.
func New(keyJSON []byte, opts ...OptFunc) (*Credential, error) {
	var key Key
	if err := json.Unmarshal(keyJSON, &key); err != nil {
		return nil, fmt.Errorf("%w: failed to parse authorized user file: %v",
			auth.ErrMalformedCredential, err)
	}
	if key.TokenURI == "" {
		key.TokenURI = defaultTokenEndpoint
	}

	c := &Credential{key: key}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromFile returns a credential for the authorized user JSON document
// stored in the given file.
func NewFromFile(path string, opts ...OptFunc) (*Credential, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read authorized user file: %w", err)
	}
	return New(b, opts...)
}

// GetKind implements auth.Credential.
func (c *Credential) GetKind() string {
	return Kind
}

// GetIdentity implements auth.Credential.
func (c *Credential) GetIdentity() string {
	return c.key.ClientID
}

// Validate implements auth.Credential.
func (c *Credential) Validate() error {
	if c.key.Type != "" && c.key.Type != KeyType {
		return fmt.Errorf("%w: invalid key type '%s', expected '%s'",
			auth.ErrMalformedCredential, c.key.Type, KeyType)
	}
	if c.key.ClientID == "" {
		return fmt.Errorf("%w: client_id is missing", auth.ErrMalformedCredential)
	}
	if c.key.ClientSecret == "" {
		return fmt.Errorf("%w: client_secret is missing", auth.ErrMalformedCredential)
	}
	if c.key.RefreshToken == "" {
		return fmt.Errorf("%w: refresh_token is missing", auth.ErrMalformedCredential)
	}
	return nil
}
