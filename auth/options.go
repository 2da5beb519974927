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
	"net/http"
	"net/url"
	"time"

	"github.com/tokenmint/pkg/cache"
	"github.com/tokenmint/pkg/transport"
)

// Options contains options for acquiring access tokens.
type Options struct {
	// Client is the HTTP client used for talking to the token endpoints.
	// When not set, a retrying client is built from the other options.
	Client *http.Client

	// Cache is the token cache consulted before refreshing. When nil,
	// every call performs a refresh.
	Cache *cache.TokenCache

	// Scopes are the scopes requested for the access token. They take
	// precedence over the default scopes of the credential.
	Scopes []string

	// STSEndpoint overrides the token endpoint of the credential.
	STSEndpoint string

	// ProxyURL is the proxy for requests to the token endpoints.
	ProxyURL *url.URL

	// CAData is the PEM-encoded CA bundle for verifying the token
	// endpoints.
	CAData string

	// RefreshSafetyMargin is the minimum remaining validity a cached
	// token must have to be served. Defaults to one minute.
	RefreshSafetyMargin time.Duration

	// InvolvedObject identifies the object on whose behalf the token is
	// acquired. Used only for labeling cache event metrics.
	InvolvedObject struct {
		Kind      string
		Name      string
		Namespace string
		Operation string
	}
}

// Option is a function that configures the options.
type Option func(*Options)

// Apply applies the given options to the receiver.
func (o *Options) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// GetHTTPClient returns the configured HTTP client, or builds a retrying
// client honoring the proxy and CA options.
func (o *Options) GetHTTPClient() (*http.Client, error) {
	if o.Client != nil {
		return o.Client, nil
	}
	var topts []transport.Option
	if o.ProxyURL != nil {
		topts = append(topts, transport.WithProxyURL(*o.ProxyURL))
	}
	if o.CAData != "" {
		topts = append(topts, transport.WithCAData([]byte(o.CAData)))
	}
	return transport.NewClient(topts...)
}

// WithHTTPClient sets the HTTP client used for talking to the token
// endpoints.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		o.Client = client
	}
}

// WithCache sets the token cache consulted before refreshing.
func WithCache(cache *cache.TokenCache) Option {
	return func(o *Options) {
		o.Cache = cache
	}
}

// WithScopes sets the scopes requested for the access token.
func WithScopes(scopes ...string) Option {
	return func(o *Options) {
		o.Scopes = append(o.Scopes, scopes...)
	}
}

// WithSTSEndpoint overrides the token endpoint of the credential.
func WithSTSEndpoint(endpoint string) Option {
	return func(o *Options) {
		o.STSEndpoint = endpoint
	}
}

// WithProxyURL sets the proxy for requests to the token endpoints.
func WithProxyURL(proxyURL url.URL) Option {
	return func(o *Options) {
		o.ProxyURL = &proxyURL
	}
}

// WithCAData sets the PEM-encoded CA bundle for verifying the token
// endpoints.
func WithCAData(caData string) Option {
	return func(o *Options) {
		o.CAData = caData
	}
}

// WithRefreshSafetyMargin sets the minimum remaining validity a cached
// token must have to be served.
func WithRefreshSafetyMargin(margin time.Duration) Option {
	return func(o *Options) {
		o.RefreshSafetyMargin = margin
	}
}

// WithInvolvedObject associates the token acquisition with the object it
// is performed on behalf of, for labeling cache event metrics.
func WithInvolvedObject(kind, name, namespace, operation string) Option {
	return func(o *Options) {
		o.InvolvedObject.Kind = kind
		o.InvolvedObject.Name = name
		o.InvolvedObject.Namespace = namespace
		o.InvolvedObject.Operation = operation
	}
}
