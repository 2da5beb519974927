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

// Package externalaccount implements the workload identity federation
// credential. An external subject token (from a file or a URL) is
// exchanged for an access token through the STS token exchange grant
// (RFC 8693), optionally followed by service account impersonation.
package externalaccount

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tokenmint/pkg/auth"
)

// Kind is the kind of external account credentials.
const Kind = "external-account"

// KeyType is the expected value of the type field of an external
// account configuration.
const KeyType = "external_account"

// Format describes how the subject token is extracted from the
// credential source content.
type Format struct {
	// Type is "text" or "json". Empty means "text".
	Type string `json:"type,omitempty"`

	// SubjectTokenFieldName names the field holding the subject token
	// when Type is "json".
	SubjectTokenFieldName string `json:"subject_token_field_name,omitempty"`
}

// CredentialSource describes where the subject token comes from.
// Exactly one of File or URL must be set.
type CredentialSource struct {
	File    string            `json:"file,omitempty"`
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Format  Format            `json:"format,omitempty"`
}

// Config is the JSON document of an external account configuration.
type Config struct {
	Type                           string           `json:"type"`
	Audience                       string           `json:"audience"`
	SubjectTokenType               string           `json:"subject_token_type"`
	TokenURL                       string           `json:"token_url"`
	ServiceAccountImpersonationURL string           `json:"service_account_impersonation_url,omitempty"`
	ClientID                       string           `json:"client_id,omitempty"`
	ClientSecret                   string           `json:"client_secret,omitempty"`
	CredentialSource               CredentialSource `json:"credential_source"`
}

// Credential is an immutable external account identity. It implements
// auth.Credential.
type Credential struct {
	conf   Config
	scopes []string
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

// New returns a credential for the given configuration.
func New(conf Config, opts ...OptFunc) (*Credential, error) {
	c := &Credential{conf: conf}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromJSON returns a credential for the given JSON configuration
// document.
func NewFromJSON(confJSON []byte, opts ...OptFunc) (*Credential, error) {
	var conf Config
	if err := json.Unmarshal(confJSON, &conf); err != nil {
		return nil, fmt.Errorf("%w: failed to parse external account configuration: %v",
			auth.ErrMalformedCredential, err)
	}
	return New(conf, opts...)
}

// NewFromFile returns a credential for the JSON configuration document
// stored in the given file.
func NewFromFile(path string, opts ...OptFunc) (*Credential, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read external account configuration file: %w", err)
	}
	return NewFromJSON(b, opts...)
}

// GetKind implements auth.Credential.
func (c *Credential) GetKind() string {
	return Kind
}

// GetIdentity implements auth.Credential.
func (c *Credential) GetIdentity() string {
	return c.conf.Audience
}

// Validate implements auth.Credential.
func (c *Credential) Validate() error {
	if c.conf.Type != "" && c.conf.Type != KeyType {
		return fmt.Errorf("%w: invalid key type '%s', expected '%s'",
			auth.ErrMalformedCredential, c.conf.Type, KeyType)
	}
	if c.conf.Audience == "" {
		return fmt.Errorf("%w: audience is missing", auth.ErrMalformedCredential)
	}
	if c.conf.SubjectTokenType == "" {
		return fmt.Errorf("%w: subject_token_type is missing", auth.ErrMalformedCredential)
	}
	if c.conf.TokenURL == "" {
		return fmt.Errorf("%w: token_url is missing", auth.ErrMalformedCredential)
	}

	src := c.conf.CredentialSource
	if src.File != "" && src.URL != "" {
		return fmt.Errorf("%w: credential source must not set both file and url",
			auth.ErrMalformedCredential)
	}
	if src.File == "" && src.URL == "" {
		return fmt.Errorf("%w: credential source must set either file or url",
			auth.ErrMalformedCredential)
	}
	switch src.Format.Type {
	case "", "text":
	case "json":
		if src.Format.SubjectTokenFieldName == "" {
			return fmt.Errorf("%w: credential source format 'json' requires subject_token_field_name",
				auth.ErrMalformedCredential)
		}
	default:
		return fmt.Errorf("%w: invalid credential source format '%s'",
			auth.ErrMalformedCredential, src.Format.Type)
	}
	return nil
}
