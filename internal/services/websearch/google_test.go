package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
)

func testConfig() *common.WebLookupConfig {
	return &common.WebLookupConfig{
		APIKey:         "test-key",
		SearchEngineID: "test-cx",
		TopK:           5,
		ConnectTimeout: 2 * time.Second,
		RequestTimeout: 5 * time.Second,
	}
}

func newTestService(t *testing.T, config *common.WebLookupConfig, handler http.HandlerFunc) *GoogleService {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service := NewGoogleService(config, arbor.NewLogger())
	service.endpoint = server.URL
	return service
}

func TestGoogleService_NotConfigured(t *testing.T) {
	calls := 0
	config := &common.WebLookupConfig{TopK: 5}
	service := newTestService(t, config, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	assert.False(t, service.Configured())

	results, err := service.Search(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, results)
	assert.Equal(t, 0, calls, "unconfigured lookup must not reach the provider")
}

func TestGoogleService_Search(t *testing.T) {
	var gotQuery, gotNum string
	service := newTestService(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotNum = r.URL.Query().Get("num")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": [
			{"title": "Go release notes", "snippet": "Go 1.25 adds...", "link": "https://go.dev/doc"},
			{"title": "", "snippet": "", "link": ""},
			{"title": "Second result", "snippet": "more detail", "link": "https://example.com"}
		]}`))
	})

	results, err := service.Search(context.Background(), "go release", 5)
	require.NoError(t, err)

	assert.Equal(t, "go release", gotQuery)
	assert.Equal(t, "5", gotNum)

	// The all-empty item is dropped
	require.Len(t, results, 2)
	assert.Equal(t, "Go release notes", results[0].Title)
	assert.Equal(t, "https://example.com", results[1].Link)
}

func TestGoogleService_ClampsTopK(t *testing.T) {
	var gotNum string
	service := newTestService(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		gotNum = r.URL.Query().Get("num")
		w.Write([]byte(`{}`))
	})

	_, err := service.Search(context.Background(), "query", 50)
	require.NoError(t, err)
	assert.Equal(t, "10", gotNum)

	_, err = service.Search(context.Background(), "query", 0)
	require.NoError(t, err)
	assert.Equal(t, "1", gotNum)
}

func TestGoogleService_ProviderError(t *testing.T) {
	service := newTestService(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 429, "message": "quota exceeded"}}`, http.StatusTooManyRequests)
	})

	results, err := service.Search(context.Background(), "query", 5)
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.Nil(t, results)
}

func TestGoogleService_MalformedResponse(t *testing.T) {
	service := newTestService(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := service.Search(context.Background(), "query", 5)
	assert.ErrorIs(t, err, ErrLookupFailed)
}

func TestGoogleService_NoItems(t *testing.T) {
	service := newTestService(t, testConfig(), func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	results, err := service.Search(context.Background(), "query", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
