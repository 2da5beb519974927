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

import "context"

// Credential is an immutable description of an identity and the means to
// prove it. Each credential kind implements the exchange that turns the
// credential into a fresh access token.
type Credential interface {
	// GetKind returns the kind of the credential, e.g. "service-account".
	GetKind() string

	// GetIdentity returns the principal the credential represents, e.g. a
	// service account email or a workload identity pool audience. It is
	// used for keying cached tokens and must be deterministic.
	GetIdentity() string

	// Validate checks that the required fields of the credential are
	// present and structurally valid. It returns an error wrapping
	// ErrMalformedCredential otherwise.
	Validate() error

	// Refresh performs the exchange that turns the credential into a new
	// access token. It is idempotent under retry: repeated calls produce
	// independent valid tokens with no side effect on the credential.
	Refresh(ctx context.Context, opts ...Option) (Token, error)
}
