package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sipsync/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Timeout: 2 * time.Second}, nil)
}

func TestCurrent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "25.03", r.URL.Query().Get("lat"))
		assert.Equal(t, "121.56", r.URL.Query().Get("lon"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"main":{"temp":283.15},"weather":[{"main":"Rain","description":"light rain"}],"name":"Taipei"}`))
	})

	reading, err := c.Current(context.Background(), 25.03, 121.56)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, reading.TempC, 0.001)
	assert.Equal(t, "rain", reading.Condition)
	assert.Equal(t, "light rain", reading.Description)
	assert.Equal(t, "Taipei", reading.Location)
}

func TestCurrentFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    common.CollaboratorKind
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			kind: common.KindStatus,
		},
		{
			name: "malformed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			kind: common.KindMalformed,
		},
		{
			name: "missing temperature",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"weather":[{"main":"Clear"}]}`))
			},
			kind: common.KindMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.Current(context.Background(), 1, 2)
			ce, ok := common.AsCollaboratorError(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, ce.Kind)
			assert.True(t, ce.Reachable())
		})
	}
}

func TestCurrentWithoutKey(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := c.Current(context.Background(), 1, 2)
	assert.True(t, common.IsConfigError(err))
}

func TestCurrentUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: url, Timeout: time.Second}, nil)
	_, err := c.Current(context.Background(), 1, 2)
	ce, ok := common.AsCollaboratorError(err)
	require.True(t, ok)
	assert.False(t, ce.Reachable())
}
