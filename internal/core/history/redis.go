package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sipsync/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const keyPrefix = "sipsync:user:"

// RedisStore 以 Redis list 保存紀錄，偏好存成 JSON 字串
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 創建 Redis 儲存
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func historyKey(userID string) string {
	return keyPrefix + userID + ":history"
}

func preferencesKey(userID string) string {
	return keyPrefix + userID + ":preferences"
}

// Append 以 RPUSH 新增紀錄
func (s *RedisStore) Append(ctx context.Context, userID string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode history entry: %w", err)
	}
	if err := s.client.RPush(ctx, historyKey(userID), data).Err(); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// ReadAll 依寫入順序回傳所有紀錄；無法解析的項目略過
func (s *RedisStore) ReadAll(ctx context.Context, userID string) ([]Entry, error) {
	items, err := s.client.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			common.LogWarn("略過無法解析的紀錄", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// SavePreferences 儲存偏好
func (s *RedisStore) SavePreferences(ctx context.Context, userID string, prefs Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := s.client.Set(ctx, preferencesKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// LoadPreferences 讀取偏好，未設定時回傳預設值
func (s *RedisStore) LoadPreferences(ctx context.Context, userID string) (Preferences, error) {
	data, err := s.client.Get(ctx, preferencesKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return DefaultPreferences(), nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("failed to load preferences: %w", err)
	}

	prefs := DefaultPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		return Preferences{}, fmt.Errorf("failed to decode preferences: %w", err)
	}
	if prefs.DietaryRestrictions == nil {
		prefs.DietaryRestrictions = []string{}
	}
	return prefs, nil
}
