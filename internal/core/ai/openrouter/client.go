package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sipsync/internal/core/ai/provider"
	"sipsync/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	providerName   = "openrouter"
	defaultBaseURL = "https://openrouter.ai/api/v1"
)

// Config OpenRouter 客戶端設定
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client OpenRouter API 客戶端
type Client struct {
	client *resty.Client
	model  string
	apiKey string
}

// Request 表示 API 請求
type Request struct {
	Model       string             `json:"model"`
	Messages    []provider.Message `json:"messages"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Temperature float64            `json:"temperature"`
}

// Response OpenRouter 響應結構
type Response struct {
	ID      string         `json:"id"`
	Choices []Choice       `json:"choices"`
	Usage   provider.Usage `json:"usage"`
}

// Choice 選擇結構
type Choice struct {
	Message      provider.Message `json:"message"`
	FinishReason string           `json:"finish_reason"`
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://sipsync.app").
		SetHeader("X-Title", "SipSync")

	return &Client{
		client: client,
		model:  cfg.Model,
		apiKey: cfg.APIKey,
	}
}

// Name 提供者名稱
func (c *Client) Name() string {
	return providerName
}

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, common.NewConfigError(providerName, "OPENROUTER_API_KEY")
	}

	body := Request{
		Model:       c.model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", c.model),
		zap.Int("messages", len(body.Messages)),
		zap.Int("max_tokens", body.MaxTokens),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, common.NewCollaboratorError(providerName, common.KindUnreachable,
			fmt.Errorf("failed to send request to OpenRouter: %w", err))
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogError("OpenRouter returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", c.model),
		)
		return nil, common.NewCollaboratorError(providerName, common.KindStatus,
			fmt.Errorf("OpenRouter API returned status %d", resp.StatusCode()))
	}

	var result Response
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return nil, common.NewCollaboratorError(providerName, common.KindMalformed,
			fmt.Errorf("failed to parse OpenRouter response: %w", err))
	}

	if len(result.Choices) == 0 {
		return nil, common.NewCollaboratorError(providerName, common.KindDeclined,
			fmt.Errorf("no choices in OpenRouter response"))
	}

	content := strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		return nil, common.NewCollaboratorError(providerName, common.KindDeclined,
			fmt.Errorf("empty content in OpenRouter response"))
	}

	common.LogDebug("Successfully generated response from OpenRouter",
		zap.String("model", c.model),
		zap.Int("content_length", len(content)),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)

	return &provider.Response{
		Content: content,
		Usage:   result.Usage,
	}, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
