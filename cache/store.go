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

package cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Store is an interface for a cache store.
type Store[T any] interface {
	// Set adds an item to the store for the given key.
	Set(key string, object T)
	// Get returns the item stored for the given key and whether it was found.
	Get(key string) (T, bool)
	// Delete deletes the item stored for the given key.
	Delete(key string)
}

// involvedObject holds the identity of the object on whose behalf a cache
// operation is performed. It is used to label cache event metrics.
type involvedObject struct {
	kind      string
	name      string
	namespace string
	operation string
}

func (o *involvedObject) labelValues() []string {
	return []string{o.kind, o.name, o.namespace, o.operation}
}

type storeOptions struct {
	registerer     prometheus.Registerer
	metricsPrefix  string
	involvedObject involvedObject
	minDuration    time.Duration
	debugKey       string
	debugValueFunc func(any) any
}

func (o *storeOptions) apply(opts ...Options) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

// Options is a function that sets the store options.
type Options func(*storeOptions) error

// WithMetricsRegisterer sets the Prometheus registerer for the cache metrics.
func WithMetricsRegisterer(r prometheus.Registerer) Options {
	return func(o *storeOptions) error {
		o.registerer = r
		return nil
	}
}

// WithMetricsPrefix sets the prefix for the cache metrics names.
func WithMetricsPrefix(prefix string) Options {
	return func(o *storeOptions) error {
		o.metricsPrefix = prefix
		return nil
	}
}

// WithInvolvedObject associates the cache events of the operation with the
// given object, identified by its kind, name and namespace, and with the
// operation being performed on its behalf.
func WithInvolvedObject(kind, name, namespace, operation string) Options {
	return func(o *storeOptions) error {
		o.involvedObject = involvedObject{
			kind:      kind,
			name:      name,
			namespace: namespace,
			operation: operation,
		}
		return nil
	}
}

// WithMinimumValidity sets the minimum remaining validity a cached token must
// have to be served. Tokens closer to their expiry than this margin are
// treated as expired and refreshed.
func WithMinimumValidity(d time.Duration) Options {
	return func(o *storeOptions) error {
		o.minDuration = d
		return nil
	}
}
