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
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
)

func TestLRU_Set(t *testing.T) {
	t.Run("adds an item", func(t *testing.T) {
		g := NewWithT(t)
		cache, err := NewLRU[string](2)
		g.Expect(err).ToNot(HaveOccurred())

		cache.Set("a", "value-a")
		got, ok := cache.Get("a")
		g.Expect(ok).To(BeTrue())
		g.Expect(got).To(Equal("value-a"))
	})

	t.Run("overwrites an existing item", func(t *testing.T) {
		g := NewWithT(t)
		cache, err := NewLRU[string](2)
		g.Expect(err).ToNot(HaveOccurred())

		cache.Set("a", "value-a")
		cache.Set("a", "value-a2")
		got, ok := cache.Get("a")
		g.Expect(ok).To(BeTrue())
		g.Expect(got).To(Equal("value-a2"))
		g.Expect(cache.ListKeys()).To(HaveLen(1))
	})

	t.Run("evicts the least recently used item", func(t *testing.T) {
		g := NewWithT(t)
		cache, err := NewLRU[string](2)
		g.Expect(err).ToNot(HaveOccurred())

		cache.Set("a", "value-a")
		cache.Set("b", "value-b")

		// Access "a" so that "b" becomes the least recently used.
		_, ok := cache.Get("a")
		g.Expect(ok).To(BeTrue())

		cache.Set("c", "value-c")
		_, ok = cache.Get("b")
		g.Expect(ok).To(BeFalse())
		_, ok = cache.Get("a")
		g.Expect(ok).To(BeTrue())
		_, ok = cache.Get("c")
		g.Expect(ok).To(BeTrue())
	})
}

func TestLRU_Delete(t *testing.T) {
	g := NewWithT(t)
	cache, err := NewLRU[string](2)
	g.Expect(err).ToNot(HaveOccurred())

	cache.Set("a", "value-a")
	cache.Delete("a")
	_, ok := cache.Get("a")
	g.Expect(ok).To(BeFalse())

	// Deleting a missing key is a no-op.
	cache.Delete("b")
}

func TestLRU_Resize(t *testing.T) {
	g := NewWithT(t)
	cache, err := NewLRU[string](5)
	g.Expect(err).ToNot(HaveOccurred())

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		cache.Set(k, "value-"+k)
	}

	removed, err := cache.Resize(2)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(removed).To(Equal(3))
	g.Expect(cache.ListKeys()).To(HaveLen(2))

	_, err = cache.Resize(0)
	g.Expect(err).To(MatchError(ErrInvalidSize))
}

func TestLRU_InvalidCapacity(t *testing.T) {
	g := NewWithT(t)
	_, err := NewLRU[string](0)
	g.Expect(err).To(MatchError(ErrInvalidSize))
}

func TestLRU_GetIfOrSet(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches on miss and serves from cache afterwards", func(t *testing.T) {
		g := NewWithT(t)
		cache, err := NewLRU[string](2)
		g.Expect(err).ToNot(HaveOccurred())

		var calls atomic.Int32
		fetch := func(context.Context) (string, error) {
			calls.Add(1)
			return "value", nil
		}

		got, ok, err := cache.GetIfOrSet(ctx, "key", nil, fetch)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(ok).To(BeFalse())
		g.Expect(got).To(Equal("value"))

		got, ok, err = cache.GetIfOrSet(ctx, "key", nil, fetch)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(ok).To(BeTrue())
		g.Expect(got).To(Equal("value"))
		g.Expect(calls.Load()).To(Equal(int32(1)))
	})

	t.Run("refetches when the condition rejects the cached item", func(t *testing.T) {
		g := NewWithT(t)
		cache, err := NewLRU[string](2)
		g.Expect(err).ToNot(HaveOccurred())

		cache.Set("key", "stale")

		fetch := func(context.Context) (string, error) { return "fresh", nil }
		condition := func(v string) bool { return v != "stale" }

		got, ok, err := cache.GetIfOrSet(ctx, "key", condition, fetch)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(ok).To(BeFalse())
		g.Expect(got).To(Equal("fresh"))

		got, ok = cache.Get("key")
		g.Expect(ok).To(BeTrue())
		g.Expect(got).To(Equal("fresh"))
	})

	t.Run("concurrent callers for the same key share a single fetch", func(t *testing.T) {
		g := NewWithT(t)
		cache, err := NewLRU[string](2)
		g.Expect(err).ToNot(HaveOccurred())

		var calls atomic.Int32
		release := make(chan struct{})
		fetch := func(context.Context) (string, error) {
			calls.Add(1)
			<-release
			return "value", nil
		}

		const n = 20
		var wg sync.WaitGroup
		results := make([]string, n)
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _, errs[i] = cache.GetIfOrSet(ctx, "key", nil, fetch)
			}(i)
		}

		// Let all goroutines reach the flight before releasing the fetch.
		g.Eventually(func() int32 { return calls.Load() }).Should(Equal(int32(1)))
		time.Sleep(10 * time.Millisecond)
		close(release)
		wg.Wait()

		g.Expect(calls.Load()).To(Equal(int32(1)))
		for i := 0; i < n; i++ {
			g.Expect(errs[i]).ToNot(HaveOccurred())
			g.Expect(results[i]).To(Equal("value"))
		}
	})

	t.Run("fetch errors propagate unchanged to all waiters", func(t *testing.T) {
		g := NewWithT(t)
		cache, err := NewLRU[string](2)
		g.Expect(err).ToNot(HaveOccurred())

		fetchErr := errors.New("exchange rejected")
		release := make(chan struct{})
		fetch := func(context.Context) (string, error) {
			<-release
			return "", fetchErr
		}

		const n = 5
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _, errs[i] = cache.GetIfOrSet(ctx, "key", nil, fetch)
			}(i)
		}
		time.Sleep(10 * time.Millisecond)
		close(release)
		wg.Wait()

		for i := 0; i < n; i++ {
			g.Expect(errs[i]).To(MatchError(fetchErr))
		}

		// Nothing was cached.
		_, ok := cache.Get("key")
		g.Expect(ok).To(BeFalse())
	})

	t.Run("waiter cancellation does not cancel the shared fetch", func(t *testing.T) {
		g := NewWithT(t)
		cache, err := NewLRU[string](2)
		g.Expect(err).ToNot(HaveOccurred())

		var calls atomic.Int32
		release := make(chan struct{})
		fetch := func(fetchCtx context.Context) (string, error) {
			calls.Add(1)
			select {
			case <-fetchCtx.Done():
				return "", fetchCtx.Err()
			case <-release:
				return "value", nil
			}
		}

		waiterCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			_, _, err := cache.GetIfOrSet(waiterCtx, "key", nil, fetch)
			done <- err
		}()

		g.Eventually(func() int32 { return calls.Load() }).Should(Equal(int32(1)))
		cancel()
		g.Expect(<-done).To(MatchError(context.Canceled))

		// The flight is still alive and its result lands in the cache.
		close(release)
		got, _, err := cache.GetIfOrSet(ctx, "key", nil, fetch)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(got).To(Equal("value"))
		g.Expect(calls.Load()).To(Equal(int32(1)))
	})
}

func TestLRU_GetIfOrSet_Metrics(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()

	reg := prometheus.NewPedanticRegistry()
	cache, err := NewLRU[string](2, WithMetricsRegisterer(reg))
	g.Expect(err).ToNot(HaveOccurred())

	fetch := func(context.Context) (string, error) { return "value", nil }
	opts := []Options{WithInvolvedObject("Deployment", "my-app", "prod", "pull")}

	_, ok, err := cache.GetIfOrSet(ctx, "key", nil, fetch, opts...)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeFalse())

	_, ok, err = cache.GetIfOrSet(ctx, "key", nil, fetch, opts...)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())

	validateMetrics(reg, `
# HELP cache_events_total Total number of cache retrieval events for an involved object.
# TYPE cache_events_total counter
cache_events_total{event_type="cache_hit",kind="Deployment",name="my-app",namespace="prod",operation="pull"} 1
cache_events_total{event_type="cache_miss",kind="Deployment",name="my-app",namespace="prod",operation="pull"} 1
`, "cache_events_total", t)

	cache.DeleteCacheEvent(CacheEventTypeHit, "Deployment", "my-app", "prod", "pull")
	cache.DeleteCacheEvent(CacheEventTypeMiss, "Deployment", "my-app", "prod", "pull")

	validateMetrics(reg, ``, "cache_events_total", t)
}
