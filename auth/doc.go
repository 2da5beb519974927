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

// Package auth handles the acquisition of short-lived access tokens for
// server-to-server API authentication.
//
// A Credential describes an identity and the means to prove it. The
// credential kinds live in subpackages: serviceaccount (JWT-bearer
// assertion signed with a private key), userrefresh (OAuth 2.0 refresh
// token) and externalaccount (workload identity federation through an
// STS token exchange).
//
// GetAccessToken is the entry point callers use to obtain a currently
// valid token. It consults the configured token cache and transparently
// refreshes tokens that are absent or expiring within a safety margin.
// Refreshes are single-flight per credential, to avoid rate-limiting by
// the remote token-issuing service.
package auth
