package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sipsync/internal/core/ai/provider"
	"sipsync/internal/pkg/common"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	providerName = "gemini"
	defaultModel = "gemini-2.5-flash"
)

// Client 以 Google Gemini 實作 provider.Provider
type Client struct {
	client  *genai.Client
	modelID string
}

// NewClient 創建 Gemini 客戶端；沒有金鑰時回傳設定錯誤
func NewClient(ctx context.Context, apiKey, modelID string, opts ...option.ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, common.NewConfigError(providerName, "GEMINI_API_KEY")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = defaultModel
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	return &Client{
		client:  client,
		modelID: modelID,
	}, nil
}

// Name 提供者名稱
func (c *Client) Name() string {
	return providerName
}

// Generate 把所有訊息合併為單一內容送出
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	model := c.client.GenerativeModel(c.modelID)
	model.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	parts := make([]genai.Part, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if text := strings.TrimSpace(msg.Content); text != "" {
			parts = append(parts, genai.Text(text))
		}
	}
	if len(parts) == 0 {
		return nil, errors.New("gemini: request has no content")
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, common.NewCollaboratorError(providerName, common.KindDeclined,
			errors.New("gemini returned no candidates"))
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	content := strings.TrimSpace(text.String())
	if content == "" {
		return nil, common.NewCollaboratorError(providerName, common.KindDeclined,
			errors.New("gemini returned empty content"))
	}

	out := &provider.Response{Content: content}
	if resp.UsageMetadata != nil {
		out.Usage = provider.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// classify 將 SDK 錯誤對應到外部服務錯誤分類
func classify(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return common.NewCollaboratorError(providerName, common.KindDeclined, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return common.NewCollaboratorError(providerName, common.KindStatus, err)
	}
	return common.NewCollaboratorError(providerName, common.KindUnreachable, err)
}

// Close 釋放 Gemini 客戶端
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
