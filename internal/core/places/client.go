package places

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sipsync/internal/observability/metrics"
	"sipsync/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	geocoderName = "geocoding"
	overpassName = "places"

	defaultGeocodeURL  = "https://nominatim.openstreetmap.org"
	defaultOverpassURL = "https://overpass-api.de/api/interpreter"
	defaultUserAgent   = "SipSync/1.0"
	defaultRadius      = 3000
)

// Config 地理編碼與商店搜尋設定
type Config struct {
	GeocodeURL   string
	OverpassURL  string
	UserAgent    string
	RadiusMeters int
	Timeout      time.Duration
}

// Location 地理座標
type Location struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name,omitempty"`
}

// Client Nominatim 與 Overpass 客戶端
type Client struct {
	geocoder    *resty.Client
	overpass    *resty.Client
	overpassURL string
	radius      int
	metrics     *metrics.Metrics
}

// NewClient 創建客戶端
func NewClient(cfg Config, m *metrics.Metrics) *Client {
	geocodeURL := cfg.GeocodeURL
	if geocodeURL == "" {
		geocodeURL = defaultGeocodeURL
	}
	overpassURL := cfg.OverpassURL
	if overpassURL == "" {
		overpassURL = defaultOverpassURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	radius := cfg.RadiusMeters
	if radius <= 0 {
		radius = defaultRadius
	}

	// Nominatim 使用條款要求帶 User-Agent
	return &Client{
		geocoder: resty.New().
			SetBaseURL(strings.TrimRight(geocodeURL, "/")).
			SetTimeout(cfg.Timeout).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "application/json"),
		overpass: resty.New().
			SetTimeout(cfg.Timeout).
			SetHeader("User-Agent", userAgent),
		overpassURL: overpassURL,
		radius:      radius,
		metrics:     m,
	}
}

type geocodeResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode 將地址轉換為座標
func (c *Client) Geocode(ctx context.Context, address string) (*Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, common.NewValidationError("address", "Please provide an address")
	}

	start := time.Now()
	loc, err := c.geocode(ctx, address)
	c.metrics.ObserveCollaborator(geocoderName, time.Since(start), err)
	return loc, err
}

func (c *Client) geocode(ctx context.Context, address string) (*Location, error) {
	resp, err := c.geocoder.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      address,
			"format": "json",
			"limit":  "1",
		}).
		Get("/search")
	if err != nil {
		return nil, common.NewCollaboratorError(geocoderName, common.KindUnreachable,
			fmt.Errorf("failed to geocode address: %w", err))
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, common.NewCollaboratorError(geocoderName, common.KindStatus,
			fmt.Errorf("geocoding API returned status %d", resp.StatusCode()))
	}

	var results []geocodeResult
	if err := common.ParseJSONBytes(resp.Body(), &results); err != nil {
		return nil, common.NewCollaboratorError(geocoderName, common.KindMalformed,
			fmt.Errorf("failed to parse geocoding response: %w", err))
	}
	if len(results) == 0 {
		return nil, common.NewCollaboratorError(geocoderName, common.KindDeclined,
			fmt.Errorf("no location found for address"))
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return nil, common.NewCollaboratorError(geocoderName, common.KindMalformed,
			fmt.Errorf("invalid coordinates %q, %q", results[0].Lat, results[0].Lon))
	}

	common.LogDebug("地址轉換完成", zap.Float64("lat", lat), zap.Float64("lon", lon))
	return &Location{Latitude: lat, Longitude: lon, DisplayName: results[0].DisplayName}, nil
}
