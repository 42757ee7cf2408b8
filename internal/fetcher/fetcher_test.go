package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/milewatcher/pkg/logger"
	"github.com/milewatcher/pkg/ratelimit"
)

func TestDocument(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`<html><body><h1 id="headline">Promoções</h1></body></html>`))
	}))
	defer server.Close()

	client := New(5*time.Second, "Mozilla/5.0 (test)", ratelimit.NewDefaultLimiter(), logger.Default())

	doc, err := client.Document(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "Promoções", doc.Find("#headline").Text())
	require.Equal(t, "Mozilla/5.0 (test)", gotUserAgent)
}

func TestDocumentNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(5*time.Second, "Mozilla/5.0 (test)", ratelimit.NewDefaultLimiter(), logger.Default())

	_, err := client.Document(context.Background(), server.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status")
}

func TestDocumentNetworkErrorIsError(t *testing.T) {
	client := New(time.Second, "Mozilla/5.0 (test)", ratelimit.NewDefaultLimiter(), logger.Default())

	// Closed port
	_, err := client.Document(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)
}
