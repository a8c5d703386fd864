package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"sipsync/internal/pkg/common"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// Cache 生成結果緩存介面
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Key 由 prompt 與生成參數組成緩存鍵
func Key(prompt string, maxTokens int, temperature float64) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%d|%.2f|%s", maxTokens, temperature, prompt)))
	return "text:" + hex.EncodeToString(hash[:])
}

// CacheManager 記憶體內緩存管理器
type CacheManager struct {
	store     *expirable.LRU[string, string]
	maxSize   int
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewManager 創建新的緩存管理器
func NewManager(maxSize int, ttl time.Duration) *CacheManager {
	m := &CacheManager{maxSize: maxSize}
	m.store = expirable.NewLRU[string, string](maxSize, func(key string, _ string) {
		m.evictions.Add(1)
	}, ttl)

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", maxSize),
		zap.Duration("存活時間", ttl),
	)
	return m
}

// Get 獲取緩存值
func (m *CacheManager) Get(_ context.Context, key string) (string, bool) {
	if value, ok := m.store.Get(key); ok {
		m.hits.Add(1)
		common.LogDebug("快取命中", zap.String("鍵", key))
		return value, true
	}
	m.misses.Add(1)
	common.LogDebug("快取未命中", zap.String("鍵", key))
	return "", false
}

// Set 設置緩存值
func (m *CacheManager) Set(_ context.Context, key, value string) error {
	m.store.Add(key, value)
	return nil
}

// GetStats 獲取緩存統計信息
func (m *CacheManager) GetStats() map[string]interface{} {
	hits, misses := m.hits.Load(), m.misses.Load()
	ratio := 0.0
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}
	return map[string]interface{}{
		"size":      m.store.Len(),
		"max_size":  m.maxSize,
		"hits":      hits,
		"misses":    misses,
		"evictions": m.evictions.Load(),
		"hit_ratio": ratio,
	}
}

// Close 關閉緩存管理器
func (m *CacheManager) Close() error {
	m.store.Purge()
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.hits.Load()),
		zap.Int64("未命中次數", m.misses.Load()),
	)
	return nil
}
