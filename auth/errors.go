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
	"errors"
	"fmt"
)

// ErrMalformedCredential is returned when required fields of a credential
// are absent or structurally invalid. This error is fatal and raised at
// construction or validation, never retried.
var ErrMalformedCredential = errors.New("malformed credential")

// ErrInvalidGrant is returned when the token-issuing service rejects the
// exchange. This error is fatal and surfaced immediately, without retry.
var ErrInvalidGrant = errors.New("invalid grant")

// OAuthError is the error response of a token endpoint, as defined by
// RFC 6749 Section 5.2.
type OAuthError struct {
	// Code is the machine-readable error code, e.g. "invalid_grant".
	Code string `json:"error"`

	// Description is the human-readable description of the error.
	Description string `json:"error_description"`

	// URI points to a page with more information about the error.
	URI string `json:"error_uri"`

	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *OAuthError) Error() string {
	msg := fmt.Sprintf("token endpoint returned status %d", e.StatusCode)
	if e.Code != "" {
		msg = fmt.Sprintf("%s, error: '%s'", msg, e.Code)
	}
	if e.Description != "" {
		msg = fmt.Sprintf("%s, description: '%s'", msg, e.Description)
	}
	return msg
}

// Is reports 4xx responses as ErrInvalidGrant. Server errors are left to
// the transport's retry policy and never classified as grant rejections.
func (e *OAuthError) Is(target error) bool {
	if target == ErrInvalidGrant {
		return e.StatusCode >= 400 && e.StatusCode < 500
	}
	return false
}
