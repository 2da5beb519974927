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

// Package serviceaccount implements the service account key credential.
// A service account authenticates by signing a JWT assertion with its
// private key and exchanging it for an access token through the
// JWT-bearer grant (RFC 7523). With an audience configured, the signed
// JWT itself is used as the access token and no exchange takes place.
package serviceaccount

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tokenmint/pkg/auth"
)

// Kind is the kind of service account credentials.
const Kind = "service-account"

// KeyType is the expected value of the type field of a service account key.
const KeyType = "service_account"

// defaultTokenEndpoint is the token endpoint used when the key does not
// carry one.
const defaultTokenEndpoint = "https://oauth2.googleapis.com/token"

// Key is the JSON document of a service account key.
type Key struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id,omitempty"`
	PrivateKeyID string `json:"private_key_id,omitempty"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri,omitempty"`
}

// Credential is an immutable service account identity. It implements
// auth.Credential.
type Credential struct {
	key        Key
	privateKey *rsa.PrivateKey
	scopes     []string
	subject    string
	audience   string
}

var _ auth.Credential = &Credential{}

// OptFunc configures the credential at construction.
type OptFunc func(*Credential)

// WithScopes sets the default scopes requested for access tokens. Scopes
// passed on the call to Refresh take precedence.
func WithScopes(scopes ...string) OptFunc {
	return func(c *Credential) {
		c.scopes = append(c.scopes, scopes...)
	}
}

// WithSubject sets the subject to impersonate in the assertion, for
// domain-wide delegation.
func WithSubject(subject string) OptFunc {
	return func(c *Credential) {
		c.subject = subject
	}
}

// WithAudience makes the credential mint self-signed JWT access tokens
// for the given audience instead of exchanging an assertion at the token
// endpoint.
func WithAudience(audience string) OptFunc {
	return func(c *Credential) {
		c.audience = audience
	}
}

// New returns a credential for the given JSON service account key.
func New(keyJSON []byte, opts ...OptFunc) (*Credential, error) {
	var key Key
	if err := json.Unmarshal(keyJSON, &key); err != nil {
		return nil, fmt.Errorf("%w: failed to parse service account key: %v",
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

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse private key: %v",
			auth.ErrMalformedCredential, err)
	}
	c.privateKey = privateKey

	return c, nil
}

// NewFromFile returns a credential for the JSON service account key stored
// in the given file.
func NewFromFile(path string, opts ...OptFunc) (*Credential, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key file: %w", err)
	}
	return New(b, opts...)
}

// GetKind implements auth.Credential.
func (c *Credential) GetKind() string {
	return Kind
}

// GetIdentity implements auth.Credential.
func (c *Credential) GetIdentity() string {
	return c.key.ClientEmail
}

// Validate implements auth.Credential.
func (c *Credential) Validate() error {
	if c.key.Type != "" && c.key.Type != KeyType {
		return fmt.Errorf("%w: invalid key type '%s', expected '%s'",
			auth.ErrMalformedCredential, c.key.Type, KeyType)
	}
	if c.key.ClientEmail == "" {
		return fmt.Errorf("%w: client_email is missing", auth.ErrMalformedCredential)
	}
	if c.key.PrivateKey == "" {
		return fmt.Errorf("%w: private_key is missing", auth.ErrMalformedCredential)
	}
	return nil
}
