package video

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sipsync/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResponse = `{
  "items": [
    {"id": {"kind": "youtube#video", "videoId": "abc123"},
     "snippet": {"title": "Peppermint Tea for Headaches",
                 "thumbnails": {"high": {"url": "https://i.ytimg.com/vi/abc123/hqdefault.jpg"}}}},
    {"id": {"kind": "youtube#channel"}, "snippet": {"title": "A channel"}},
    {"id": {"kind": "youtube#video", "videoId": "def456"},
     "snippet": {"title": "How to brew mint tea",
                 "thumbnails": {"default": {"url": "https://i.ytimg.com/vi/def456/default.jpg"}}}}
  ]
}`

func newTestSearcher(t *testing.T, handler http.HandlerFunc) *Searcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewSearcher(context.Background(), Config{
		APIKey:   "test-key",
		Endpoint: srv.URL + "/",
		Timeout:  2 * time.Second,
	}, nil)
	require.NoError(t, err)
	return s
}

func TestSearch(t *testing.T) {
	s := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/search"), r.URL.Path)
		assert.Equal(t, "peppermint tea for headache", r.URL.Query().Get("q"))
		assert.Equal(t, "video", r.URL.Query().Get("type"))
		assert.Equal(t, "3", r.URL.Query().Get("maxResults"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchResponse))
	})

	videos, err := s.Search(context.Background(), "peppermint tea for headache", 0)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, Video{
		Title:        "Peppermint Tea for Headaches",
		URL:          "https://www.youtube.com/watch?v=abc123",
		ThumbnailURL: "https://i.ytimg.com/vi/abc123/hqdefault.jpg",
	}, videos[0])
	assert.Equal(t, "https://i.ytimg.com/vi/def456/default.jpg", videos[1].ThumbnailURL)
}

func TestSearchLimit(t *testing.T) {
	s := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("maxResults"))
		_, _ = w.Write([]byte(searchResponse))
	})

	videos, err := s.Search(context.Background(), "tea", 1)
	require.NoError(t, err)
	assert.Len(t, videos, 1)
}

func TestSearchStatusError(t *testing.T) {
	s := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
	})

	_, err := s.Search(context.Background(), "tea", 3)
	ce, ok := common.AsCollaboratorError(err)
	require.True(t, ok)
	assert.Equal(t, common.KindStatus, ce.Kind)
}

func TestSearchWithoutKey(t *testing.T) {
	s, err := NewSearcher(context.Background(), Config{}, nil)
	require.NoError(t, err)

	_, err = s.Search(context.Background(), "tea", 3)
	assert.True(t, common.IsConfigError(err))
}

func TestSearchEmptyKeywords(t *testing.T) {
	s, err := NewSearcher(context.Background(), Config{}, nil)
	require.NoError(t, err)

	_, err = s.Search(context.Background(), "  ", 3)
	assert.True(t, common.IsValidationError(err))
}
