package http_test

import (
	"context"
	"encoding/json"
	"io"
	gohttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/http"
)

func TestPostSendsJSONWithBasicAuth(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(500), body["amount"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"order_1"}`)
	}))
	defer srv.Close()

	c := http.NewClient(srv.URL + "/v1/")
	resp, err := c.Post(context.Background(), "/orders").
		BasicAuth("key", "secret").
		Body(map[string]any{"amount": 500}).
		Send()
	require.NoError(t, err)
	require.NoError(t, resp.Throw())

	var out struct{ ID string }
	require.NoError(t, resp.JSON(&out))
	assert.Equal(t, "order_1", out.ID)
}

func TestRetriesOnServiceUnavailable(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(gohttp.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `ok`)
	}))
	defer srv.Close()

	c := http.NewClient(srv.URL)
	c.RetryWait = time.Millisecond
	resp, err := c.Get(context.Background(), "/").Send()
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		hits.Add(1)
		w.WriteHeader(gohttp.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"bad"}`)
	}))
	defer srv.Close()

	resp, err := http.NewClient(srv.URL).Post(context.Background(), "/orders").Send()
	require.NoError(t, err)
	assert.Error(t, resp.Throw())
	assert.Equal(t, int32(1), hits.Load())
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := http.NewClient(srv.URL)
	c.Timeout = 20 * time.Millisecond
	c.Attempts = 1
	_, err := c.Get(context.Background(), "/").Send()
	assert.Error(t, err)
}
