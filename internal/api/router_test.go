package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sipsync/internal/api/handlers/health"
	"sipsync/internal/core/history"
	"sipsync/internal/core/places"
	"sipsync/internal/core/recommend"
	"sipsync/internal/core/remedy"
	"sipsync/internal/core/video"
	"sipsync/internal/infrastructure/config"
	"sipsync/internal/observability/metrics"
	"sipsync/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVideos struct {
	videos []video.Video
	err    error
}

func (s *stubVideos) Search(context.Context, string, int) ([]video.Video, error) {
	return s.videos, s.err
}

type stubStores struct {
	geocodeErr error
	stores     []places.Store
	lat, lon   float64
}

func (s *stubStores) Geocode(_ context.Context, address string) (*places.Location, error) {
	if s.geocodeErr != nil {
		return nil, s.geocodeErr
	}
	return &places.Location{Latitude: 51.5, Longitude: -0.12, DisplayName: address}, nil
}

func (s *stubStores) NearbyStores(_ context.Context, lat, lon float64, _ []string) ([]places.Store, error) {
	s.lat, s.lon = lat, lon
	return s.stores, nil
}

type failingStore struct{ history.Store }

func (failingStore) ReadAll(context.Context, string) ([]history.Entry, error) {
	return nil, errors.New("connection refused")
}

func testConfig() *config.Config {
	return &config.Config{
		App:         config.AppConfig{Debug: true, Version: "test"},
		AI:          config.AIConfig{Provider: "none"},
		Server:      config.ServerConfig{MaxBodyBytes: 1 << 20, RequestTimeout: 5 * time.Second},
		DedupWindow: time.Millisecond,
	}
}

func newTestRouter(t *testing.T, mutate func(*Services)) (*gin.Engine, *history.MemoryStore) {
	t.Helper()

	catalog, err := remedy.LoadDefault()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := history.NewMemoryStore()

	svc := Services{
		Recommender: recommend.NewService(recommend.Dependencies{
			Catalog: catalog,
			History: store,
			Metrics: m,
			Now:     func() time.Time { return time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC) },
		}),
		Videos: &stubVideos{videos: []video.Video{{Title: "Peppermint tea", URL: "https://www.youtube.com/watch?v=x"}}},
		Stores: &stubStores{stores: []places.Store{{Name: "Leaf Tea", Type: "Tea"}}},
		History:  store,
		Metrics:  m,
		Gatherer: reg,
	}
	if mutate != nil {
		mutate(&svc)
	}

	r, err := SetupRouter(testConfig(), svc)
	require.NoError(t, err)
	return r, store
}

func perform(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSetupRouterRequiresServices(t *testing.T) {
	_, err := SetupRouter(testConfig(), Services{})
	assert.Error(t, err)
}

func TestRecommendationsEndpoint(t *testing.T) {
	r, store := newTestRouter(t, nil)

	w := perform(r, http.MethodPost, "/api/v1/recommendations",
		`{"text":"I have a headache","category":"tea","user_id":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Peppermint Tea", body["remedy"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	entries, err := store.ReadAll(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecommendationsNoMatchIsOK(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := perform(r, http.MethodPost, "/api/v1/recommendations", `{"text":"xyzzy plugh","category":"coffee"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "no_match", body["status"])
	assert.Len(t, body["seasonal_recommendations"], 3)
}

func TestRecommendationsValidation(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"empty text", `{"text":"   ","category":"tea"}`, "text"},
		{"bad category", `{"text":"headache","category":"soda"}`, "category"},
		{"bad weather", `{"text":"headache","category":"tea","weather":"foggy"}`, "weather"},
		{"half location", `{"text":"headache","category":"tea","latitude":10}`, "location"},
		{"bad user", `{"text":"headache","category":"tea","user_id":"a b"}`, "user_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodPost, "/api/v1/recommendations", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			body := decode(t, w)
			assert.Equal(t, common.ErrCodeValidationFailed, body["code"])
			assert.Equal(t, tt.field, body["field"])
		})
	}

	w := perform(r, http.MethodPost, "/api/v1/recommendations", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, common.ErrCodeInvalidRequest, decode(t, w)["code"])
}

func TestRecommendationsUsePreferences(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := perform(r, http.MethodPut, "/api/v1/users/u2/preferences",
		`{"language":"en-GB","preferred_category":"Coffee"}`)
	require.Equal(t, http.StatusOK, w.Code)
	prefs := decode(t, w)
	assert.Equal(t, "en", prefs["language"])
	assert.Equal(t, "coffee", prefs["preferred_category"])

	w = perform(r, http.MethodPost, "/api/v1/recommendations", `{"text":"headache","user_id":"u2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "coffee", decode(t, w)["category"])
}

func TestPreferencesValidation(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := perform(r, http.MethodPut, "/api/v1/users/u3/preferences", `{"language":"klingon"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPut, "/api/v1/users/u3/preferences", `{"preferred_category":"soda"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodGet, "/api/v1/users/u3/preferences", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "en", decode(t, w)["language"])
}

func TestProfileEndpoints(t *testing.T) {
	r, store := newTestRouter(t, nil)
	ctx := context.Background()
	for _, e := range []history.Entry{
		{Ailment: "headache", Remedy: "Peppermint Tea", SustainabilityScore: 4.5, WeatherAdjusted: true},
		{Ailment: "headache", Remedy: "Peppermint Tea", SustainabilityScore: 4.5},
		{Ailment: "stress", Remedy: "Chamomile Tea", SustainabilityScore: 4.0},
	} {
		require.NoError(t, store.Append(ctx, "u4", e))
	}

	w := perform(r, http.MethodGet, "/api/v1/users/u4/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["entries"], 3)

	w = perform(r, http.MethodGet, "/api/v1/users/u4/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["stats"].(map[string]interface{})
	assert.Equal(t, 3.0, stats["total"])
	assert.Equal(t, "headache", stats["most_common_ailment"])

	w = perform(r, http.MethodGet, "/api/v1/users/u4/suggestions", "")
	require.Equal(t, http.StatusOK, w.Code)
	suggestions := decode(t, w)["suggestions"].([]interface{})
	require.Len(t, suggestions, 2)
	assert.Equal(t, "Peppermint Tea", suggestions[0].(map[string]interface{})["remedy"])

	w = perform(r, http.MethodGet, "/api/v1/users/nobody/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decode(t, w)["entries"])
}

func TestProfileStoreUnavailable(t *testing.T) {
	r, _ := newTestRouter(t, func(s *Services) {
		s.History = failingStore{Store: history.NewMemoryStore()}
	})

	w := perform(r, http.MethodGet, "/api/v1/users/u5/history", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestVideosEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := perform(r, http.MethodGet, "/api/v1/videos?q=peppermint+tea", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["videos"], 1)

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/api/v1/videos", "").Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/api/v1/videos?q=tea&limit=99", "").Code)
}

func TestVideosFailureReturnsEmptyList(t *testing.T) {
	r, _ := newTestRouter(t, func(s *Services) {
		s.Videos = &stubVideos{err: common.NewConfigError("youtube", "YOUTUBE_API_KEY")}
	})

	w := perform(r, http.MethodGet, "/api/v1/videos?q=tea", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decode(t, w)["videos"])
}

func TestStoresEndpoint(t *testing.T) {
	stores := &stubStores{stores: []places.Store{{Name: "Leaf Tea", Type: "Tea"}}}
	r, _ := newTestRouter(t, func(s *Services) { s.Stores = stores })

	w := perform(r, http.MethodGet, "/api/v1/stores?lat=40.7&lon=-74&ingredients=honey,ginger", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["stores"], 1)
	assert.Equal(t, 40.7, stores.lat)

	w = perform(r, http.MethodGet, "/api/v1/stores?address=London", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 51.5, stores.lat)

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/api/v1/stores", "").Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/api/v1/stores?lat=200&lon=0", "").Code)
}

func TestStoresGeocodeFailure(t *testing.T) {
	r, _ := newTestRouter(t, func(s *Services) {
		s.Stores = &stubStores{geocodeErr: common.NewCollaboratorError("nominatim", common.KindDeclined, nil)}
	})

	w := perform(r, http.MethodGet, "/api/v1/stores?address=Nowhere", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Nil(t, body["location"])
	assert.Equal(t, []interface{}{}, body["stores"])
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, func(s *Services) {
		s.Checks = map[string]health.Checker{
			"redis": func(context.Context) error { return errors.New("down") },
		}
	})

	w := perform(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", decode(t, w)["version"])

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/live", "").Code)

	w = perform(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not_ready", decode(t, w)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	perform(r, http.MethodPost, "/api/v1/recommendations", `{"text":"cough","category":"tea"}`)

	w := perform(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sipsync_recommend_results_total")
	assert.Contains(t, w.Body.String(), `route="/api/v1/recommendations"`)
}
