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

// Package transport builds the HTTP clients used for talking to token
// endpoints. Clients retry connection errors and server errors with
// exponential backoff. Client errors (4xx) are never retried, grant
// rejections must surface to the caller immediately.
package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultRetries      = 3
	defaultRetryWaitMin = 500 * time.Millisecond
	defaultRetryWaitMax = 30 * time.Second
	defaultTimeout      = 30 * time.Second
)

type options struct {
	retries      int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	timeout      time.Duration
	proxyURL     *url.URL
	caData       []byte
	logger       *logr.Logger
}

// Option configures the HTTP client returned by NewClient.
type Option func(*options)

// WithRetries sets the maximum number of retries for transient failures.
func WithRetries(retries int) Option {
	return func(o *options) {
		o.retries = retries
	}
}

// WithRetryWait sets the bounds of the exponential backoff between retries.
func WithRetryWait(min, max time.Duration) Option {
	return func(o *options) {
		o.retryWaitMin = min
		o.retryWaitMax = max
	}
}

// WithTimeout sets the overall timeout of a single request attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithProxyURL sets the proxy to use for outgoing requests.
func WithProxyURL(proxyURL url.URL) Option {
	return func(o *options) {
		o.proxyURL = &proxyURL
	}
}

// WithCAData sets the PEM-encoded CA bundle used to verify the remote
// endpoint, replacing the system pool.
func WithCAData(caData []byte) Option {
	return func(o *options) {
		o.caData = caData
	}
}

// WithLogger sets the logger for retry attempts. Requests are not
// logged when no logger is configured.
func WithLogger(logger logr.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// NewClient returns an *http.Client that retries connection errors and
// HTTP 5xx responses with bounded exponential backoff.
func NewClient(opts ...Option) (*http.Client, error) {
	o := options{
		retries:      defaultRetries,
		retryWaitMin: defaultRetryWaitMin,
		retryWaitMax: defaultRetryWaitMax,
		timeout:      defaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if o.proxyURL != nil {
		transport.Proxy = http.ProxyURL(o.proxyURL)
	}
	if len(o.caData) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(o.caData) {
			return nil, fmt.Errorf("failed to parse CA certificate data")
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}

	httpClient := retryablehttp.NewClient()
	httpClient.HTTPClient = &http.Client{
		Transport: transport,
		Timeout:   o.timeout,
	}
	httpClient.RetryWaitMin = o.retryWaitMin
	httpClient.RetryWaitMax = o.retryWaitMax
	httpClient.RetryMax = o.retries
	httpClient.Logger = nil
	if o.logger != nil {
		httpClient.Logger = &retryLogger{logger: *o.logger}
	}

	return httpClient.StandardClient(), nil
}
