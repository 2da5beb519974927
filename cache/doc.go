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

// Package cache provides a generic LRU store and a TokenCache built on top of
// it, specialized in storing and retrieving short-lived access tokens.
//
// The LRU is a plain capacity-bound key/object store:
//
//	lru, err := cache.NewLRU[string](10)
//
// GetIfOrSet is the single-flight entry point: for a given key, at most one
// fetch is in flight at any time, and concurrent callers for the same key
// await the result of that fetch instead of issuing their own.
//
// The cache is self-instrumenting and exports metrics about its internal
// operations when configured with a metrics registerer:
//
//	lru, err := cache.NewLRU[string](10, cache.WithMetricsRegisterer(reg))
//
// Cache hit/miss events can be associated with the object on whose behalf a
// token is being acquired by passing the involved object details on the call:
//
//	token, ok, err := tc.GetOrSet(ctx, key, newToken,
//		cache.WithInvolvedObject("Deployment", "my-app", "prod", "pull"))
package cache
