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
	"crypto/sha256"
	"fmt"
	"strings"
)

func buildCacheKey(parts ...string) string {
	s := strings.Join(parts, "\n")
	hash := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", hash)
}

// buildCredentialCacheKey derives the cache key for the given credential
// and options. Everything that changes the minted token must be part of
// the key.
func buildCredentialCacheKey(cred Credential, opts ...Option) string {
	var o Options
	o.Apply(opts...)

	var parts []string

	parts = append(parts, fmt.Sprintf("credentialKind=%s", cred.GetKind()))
	parts = append(parts, fmt.Sprintf("credentialIdentity=%s", cred.GetIdentity()))

	if len(o.Scopes) > 0 {
		parts = append(parts, fmt.Sprintf("scopes=%s", strings.Join(o.Scopes, ",")))
	}

	if o.STSEndpoint != "" {
		parts = append(parts, fmt.Sprintf("stsEndpoint=%s", o.STSEndpoint))
	}

	if o.ProxyURL != nil {
		parts = append(parts, fmt.Sprintf("proxyURL=%s", o.ProxyURL))
	}

	if o.CAData != "" {
		parts = append(parts, fmt.Sprintf("caData=%s", o.CAData))
	}

	return buildCacheKey(parts...)
}
