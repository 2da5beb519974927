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
	"fmt"
	"time"

	"github.com/tokenmint/pkg/cache"
)

// DefaultRefreshSafetyMargin is the minimum remaining validity a cached
// token must have to be served, unless overridden with
// WithRefreshSafetyMargin. Tokens closer to their expiry are refreshed
// ahead of time.
const DefaultRefreshSafetyMargin = time.Minute

// GetAccessToken returns a currently valid access token for the given
// credential.
//
// When a cache is configured the token is served from it as long as it is
// live and not expiring within the safety margin, and refreshes are
// single-flight per credential: a second concurrent caller for the same
// credential awaits the result of the in-flight refresh instead of issuing
// a duplicate one. Without a cache every call refreshes.
func GetAccessToken(ctx context.Context, cred Credential, opts ...Option) (Token, error) {
	var o Options
	o.Apply(opts...)

	if err := cred.Validate(); err != nil {
		return nil, err
	}

	newToken := func(ctx context.Context) (cache.Token, error) {
		token, err := cred.Refresh(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh %s token for '%s': %w",
				cred.GetKind(), cred.GetIdentity(), err)
		}
		return token, nil
	}

	// Bail out early if cache is disabled.
	if o.Cache == nil {
		return newToken(ctx)
	}

	margin := o.RefreshSafetyMargin
	if margin <= 0 {
		margin = DefaultRefreshSafetyMargin
	}

	cacheKey := buildCredentialCacheKey(cred, opts...)

	token, _, err := o.Cache.GetOrSet(ctx, cacheKey, newToken,
		cache.WithMinimumValidity(margin),
		cache.WithInvolvedObject(
			o.InvolvedObject.Kind,
			o.InvolvedObject.Name,
			o.InvolvedObject.Namespace,
			o.InvolvedObject.Operation))
	if err != nil {
		return nil, err
	}

	return token, nil
}
