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

package transport

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestNewClient_RetriesServerErrors(t *testing.T) {
	g := NewWithT(t)

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(
		WithRetries(5),
		WithRetryWait(time.Millisecond, 5*time.Millisecond),
	)
	g.Expect(err).ToNot(HaveOccurred())

	resp, err := client.Get(srv.URL)
	g.Expect(err).ToNot(HaveOccurred())
	defer resp.Body.Close()
	g.Expect(resp.StatusCode).To(Equal(http.StatusOK))
	g.Expect(attempts.Load()).To(Equal(int32(3)))
}

func TestNewClient_DoesNotRetryClientErrors(t *testing.T) {
	g := NewWithT(t)

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(
		WithRetries(5),
		WithRetryWait(time.Millisecond, 5*time.Millisecond),
	)
	g.Expect(err).ToNot(HaveOccurred())

	resp, err := client.Get(srv.URL)
	g.Expect(err).ToNot(HaveOccurred())
	defer resp.Body.Close()
	g.Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	g.Expect(attempts.Load()).To(Equal(int32(1)))
}

func TestNewClient_RetryBudgetExhausted(t *testing.T) {
	g := NewWithT(t)

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(
		WithRetries(2),
		WithRetryWait(time.Millisecond, 5*time.Millisecond),
	)
	g.Expect(err).ToNot(HaveOccurred())

	_, err = client.Get(srv.URL) //nolint:bodyclose // no response on exhausted retries
	g.Expect(err).To(HaveOccurred())
	g.Expect(attempts.Load()).To(Equal(int32(3)))
}

func TestNewClient_InvalidCAData(t *testing.T) {
	g := NewWithT(t)
	_, err := NewClient(WithCAData([]byte("not a pem block")))
	g.Expect(err).To(HaveOccurred())
	g.Expect(err.Error()).To(ContainSubstring("CA certificate"))
}

func TestNewClient_CAData(t *testing.T) {
	g := NewWithT(t)

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	// Without the server CA the handshake fails.
	client, err := NewClient(WithRetries(0))
	g.Expect(err).ToNot(HaveOccurred())
	_, err = client.Get(srv.URL) //nolint:bodyclose
	g.Expect(err).To(HaveOccurred())
}
