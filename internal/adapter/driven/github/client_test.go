package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/shilph/art/internal/adapter/driven/github"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *ghAdapter.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/", "shilph", "art")
	require.NoError(t, err)

	return client
}

type releaseJSON struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	PublishedAt string `json:"published_at"`
}

func TestLatestRelease(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/shilph/art/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-RateLimit-Remaining", "59")
		w.Header().Set("X-RateLimit-Limit", "60")
		_ = json.NewEncoder(w).Encode(releaseJSON{
			TagName:     "v2.1.0",
			Name:        "Hyatt and IHG",
			HTMLURL:     "https://github.com/shilph/art/releases/tag/v2.1.0",
			PublishedAt: "2026-09-30T12:00:00Z",
		})
	})

	rel, err := newTestClient(t, mux).LatestRelease(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "v2.1.0", rel.Tag)
	assert.Equal(t, "Hyatt and IHG", rel.Name)
	assert.Equal(t, "https://github.com/shilph/art/releases/tag/v2.1.0", rel.URL)
	assert.Equal(t, time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC), rel.PublishedAt.UTC())
}

func TestLatestRelease_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/shilph/art/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})

	_, err := newTestClient(t, mux).LatestRelease(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shilph/art")
}

func TestNewClientWithHTTPClient_BadURL(t *testing.T) {
	_, err := ghAdapter.NewClientWithHTTPClient(http.DefaultClient, "://bad", "o", "r")
	assert.Error(t, err)
}
