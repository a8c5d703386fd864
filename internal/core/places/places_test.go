package places

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"sipsync/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "10 Downing Street, London", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "SipSync/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"lat":"51.5033635","lon":"-0.1276248","display_name":"10 Downing Street"}]`))
	}))
	defer srv.Close()

	c := NewClient(Config{GeocodeURL: srv.URL, Timeout: time.Second}, nil)
	loc, err := c.Geocode(context.Background(), " 10 Downing Street, London ")
	require.NoError(t, err)
	assert.InDelta(t, 51.5033635, loc.Latitude, 1e-9)
	assert.InDelta(t, -0.1276248, loc.Longitude, 1e-9)
	assert.Equal(t, "10 Downing Street", loc.DisplayName)
}

func TestGeocodeFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		kind common.CollaboratorKind
	}{
		{"no results", `[]`, http.StatusOK, common.KindDeclined},
		{"bad json", `{`, http.StatusOK, common.KindMalformed},
		{"bad coordinates", `[{"lat":"north","lon":"1"}]`, http.StatusOK, common.KindMalformed},
		{"status", ``, http.StatusTooManyRequests, common.KindStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{GeocodeURL: srv.URL, Timeout: time.Second}, nil)
			_, err := c.Geocode(context.Background(), "somewhere")
			ce, ok := common.AsCollaboratorError(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, ce.Kind)
		})
	}
}

func TestGeocodeEmptyAddress(t *testing.T) {
	c := NewClient(Config{}, nil)
	_, err := c.Geocode(context.Background(), "  ")
	assert.True(t, common.IsValidationError(err))
}

func TestKeywords(t *testing.T) {
	got := Keywords([]string{"Almond milk", "Honey", "Fresh ginger root", "Mixed herbs", "Oat Milk"})
	assert.Equal(t, []string{
		"cafe", "tea", "coffee", "supermarket", "grocery", "market",
		"dairy", "milk", "organic", "spice", "herbalist",
	}, got)

	assert.Len(t, Keywords(nil), 6)
}

func TestNearbyStores(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		values, err := url.ParseQuery(string(body))
		require.NoError(t, err)
		query = values.Get("data")

		_, _ = w.Write([]byte(`{"elements":[
			{"lat":51.501,"lon":-0.128,"tags":{"name":"Big Market","shop":"supermarket","addr:street":"Whitehall","addr:housenumber":"1","addr:city":"London"}},
			{"lat":51.504,"lon":-0.127,"tags":{"name":"Leaf Tea","shop":"tea"}},
			{"lat":51.5034,"lon":-0.1277,"tags":{"name":"Corner Cafe","amenity":"cafe","addr:street":"Downing St"}},
			{"lat":51.6,"lon":-0.2,"tags":{"name":"Corner Cafe","amenity":"cafe"}},
			{"lat":51.5,"lon":-0.1,"tags":{"shop":"bakery"}},
			{"lat":51.502,"lon":-0.129,"tags":{"name":"Herb House","shop":"health_food"}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{OverpassURL: srv.URL, Timeout: time.Second}, nil)
	stores, err := c.NearbyStores(context.Background(), 51.5033635, -0.1276248, []string{"Honey"})
	require.NoError(t, err)

	assert.Contains(t, query, "[out:json]")
	assert.Contains(t, query, "around:3000,51.50336")
	assert.Contains(t, query, "organic")
	assert.Contains(t, query, `node["amenity"="cafe"]`)

	require.Len(t, stores, 4)
	assert.Equal(t, "Corner Cafe", stores[0].Name)
	assert.Equal(t, "Cafe", stores[0].Type)
	assert.Equal(t, "Downing St", stores[0].Address)
	assert.Equal(t, "Leaf Tea", stores[1].Name)
	assert.Equal(t, "Tea", stores[1].Type)
	assert.Equal(t, "Address not available", stores[1].Address)
	assert.Equal(t, "Herb House", stores[2].Name)
	assert.Equal(t, "Health Food", stores[2].Type)
	assert.Equal(t, "Big Market", stores[3].Name)
	assert.Equal(t, "1 Whitehall, London", stores[3].Address)
	assert.Less(t, stores[2].DistanceMeters, stores[3].DistanceMeters)
}

func TestNearbyStoresStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	c := NewClient(Config{OverpassURL: srv.URL, Timeout: time.Second}, nil)
	_, err := c.NearbyStores(context.Background(), 1, 2, nil)
	ce, ok := common.AsCollaboratorError(err)
	require.True(t, ok)
	assert.Equal(t, common.KindStatus, ce.Kind)
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 0, distance(10, 10, 10, 10), 1e-9)
	// 赤道上經度一度約 111 公里
	assert.InDelta(t, 111195, distance(0, 0, 0, 1), 10)
}
