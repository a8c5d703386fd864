package weather

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
	collaboratorName = "weather"
	defaultBaseURL   = "https://api.openweathermap.org/data/2.5"
	kelvinOffset     = 273.15
)

// Config OpenWeather 客戶端設定
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Reading 目前天氣
type Reading struct {
	TempC       float64 `json:"temp_c"`
	Condition   string  `json:"condition"`
	Description string  `json:"description,omitempty"`
	Location    string  `json:"location,omitempty"`
}

// Client OpenWeather 客戶端
type Client struct {
	client  *resty.Client
	apiKey  string
	metrics *metrics.Metrics
}

type currentResponse struct {
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Name string `json:"name"`
}

// NewClient 創建 OpenWeather 客戶端
func NewClient(cfg Config, m *metrics.Metrics) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		client: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(cfg.Timeout).
			SetHeader("Accept", "application/json"),
		apiKey:  cfg.APIKey,
		metrics: m,
	}
}

// Current 取得座標的目前天氣，溫度轉換為攝氏
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Reading, error) {
	start := time.Now()
	reading, err := c.current(ctx, lat, lon)
	c.metrics.ObserveCollaborator(collaboratorName, time.Since(start), err)
	return reading, err
}

func (c *Client) current(ctx context.Context, lat, lon float64) (*Reading, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, common.NewConfigError(collaboratorName, "OPENWEATHER_API_KEY")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":   strconv.FormatFloat(lat, 'f', -1, 64),
			"lon":   strconv.FormatFloat(lon, 'f', -1, 64),
			"appid": c.apiKey,
		}).
		Get("/weather")
	if err != nil {
		return nil, common.NewCollaboratorError(collaboratorName, common.KindUnreachable,
			fmt.Errorf("failed to fetch weather: %w", err))
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogWarn("天氣服務回傳錯誤狀態", zap.Int("status_code", resp.StatusCode()))
		return nil, common.NewCollaboratorError(collaboratorName, common.KindStatus,
			fmt.Errorf("weather API returned status %d", resp.StatusCode()))
	}

	var body currentResponse
	if err := common.ParseJSONBytes(resp.Body(), &body); err != nil {
		return nil, common.NewCollaboratorError(collaboratorName, common.KindMalformed,
			fmt.Errorf("failed to parse weather response: %w", err))
	}
	if body.Main.Temp == nil {
		return nil, common.NewCollaboratorError(collaboratorName, common.KindMalformed,
			fmt.Errorf("weather response has no temperature"))
	}

	reading := &Reading{
		TempC:    *body.Main.Temp - kelvinOffset,
		Location: body.Name,
	}
	if len(body.Weather) > 0 {
		reading.Condition = strings.ToLower(body.Weather[0].Main)
		reading.Description = body.Weather[0].Description
	}
	return reading, nil
}
