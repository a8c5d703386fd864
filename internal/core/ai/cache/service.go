package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sipsync/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const keyPrefix = "sipsync:ai:"

// Service Redis 緩存服務，多個實例共用生成結果
type Service struct {
	client *redis.Client
	ttl    time.Duration
}

// NewService 創建緩存服務
func NewService(client *redis.Client, ttl time.Duration) *Service {
	return &Service{
		client: client,
		ttl:    ttl,
	}
}

// Get 獲取緩存；Redis 錯誤視為未命中
func (s *Service) Get(ctx context.Context, key string) (string, bool) {
	value, err := s.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			common.LogWarn("Redis 快取讀取失敗", zap.Error(err))
		}
		return "", false
	}
	return value, true
}

// Set 設置緩存
func (s *Service) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close Redis 連線由呼叫端管理
func (s *Service) Close() error {
	return nil
}
