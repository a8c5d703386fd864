package service

import (
	"context"
	"strings"
	"time"

	"sipsync/internal/core/ai/cache"
	"sipsync/internal/core/ai/provider"
	"sipsync/internal/observability/metrics"
	"sipsync/internal/pkg/common"
)

// Service AI 文字生成服務
//
// 包裝 provider，加上單次呼叫逾時、prompt 緩存與指標。provider 為 nil 時
// 所有呼叫都回傳設定錯誤，呼叫端會走本地 fallback。
type Service struct {
	provider provider.Provider
	cache    cache.Cache
	metrics  *metrics.Metrics
	timeout  time.Duration
}

// NewService 創建 AI 服務
func NewService(p provider.Provider, c cache.Cache, m *metrics.Metrics, timeout time.Duration) *Service {
	return &Service{
		provider: p,
		cache:    c,
		metrics:  m,
		timeout:  timeout,
	}
}

// Generate 生成文字，不重試
func (s *Service) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if s == nil || s.provider == nil {
		return "", common.NewConfigError("text-generation", "AI provider")
	}

	prompt = strings.TrimSpace(prompt)
	key := cache.Key(prompt, maxTokens, temperature)

	if s.cache != nil {
		if val, ok := s.cache.Get(ctx, key); ok && val != "" {
			return val, nil
		}
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.provider.Generate(callCtx, provider.UserPrompt(prompt, maxTokens, temperature))
	elapsed := time.Since(start)
	s.metrics.ObserveCollaborator(s.provider.Name(), elapsed, err)
	common.LogAICall(s.provider.Name(), elapsed, err)
	if err != nil {
		if _, ok := common.AsCollaboratorError(err); !ok {
			err = common.NewCollaboratorError(s.provider.Name(), common.KindUnreachable, err)
		}
		return "", err
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", common.NewCollaboratorError(s.provider.Name(), common.KindDeclined, nil)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, content); err != nil {
			common.LogWarn("快取寫入失敗")
		}
	}

	return content, nil
}

// Close 關閉 provider 與緩存
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.provider != nil {
		return s.provider.Close()
	}
	return nil
}
