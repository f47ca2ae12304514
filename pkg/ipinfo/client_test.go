package ipinfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLookupReturnsIP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"203.0.113.7"}`))
	}))
	defer server.Close()

	client := New(server.URL, time.Second, nil)
	assert.Equal(t, "203.0.113.7", client.Lookup(context.Background()))
}

func TestLookupDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, time.Second, nil)
	assert.Equal(t, "", client.Lookup(context.Background()))

	server.Close()
	assert.Equal(t, "", client.Lookup(context.Background()))

	assert.Equal(t, "", New("", time.Second, nil).Lookup(context.Background()))
}

func TestLookupBadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not-json`))
	}))
	defer server.Close()

	client := New(server.URL, time.Second, nil)
	assert.Equal(t, "", client.Lookup(context.Background()))
}
