package history

import (
	"context"
	"sync"
)

// MemoryStore 記憶體內的紀錄儲存，程序重啟後資料消失
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]Entry
	prefs   map[string]Preferences
}

// NewMemoryStore 創建記憶體儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]Entry),
		prefs:   make(map[string]Preferences),
	}
}

// Append 新增紀錄
func (s *MemoryStore) Append(_ context.Context, userID string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = append(s.entries[userID], entry)
	return nil
}

// ReadAll 依寫入順序回傳所有紀錄
func (s *MemoryStore) ReadAll(_ context.Context, userID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries[userID]...), nil
}

// SavePreferences 儲存偏好
func (s *MemoryStore) SavePreferences(_ context.Context, userID string, prefs Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefs.DietaryRestrictions = append([]string{}, prefs.DietaryRestrictions...)
	s.prefs[userID] = prefs
	return nil
}

// LoadPreferences 讀取偏好，未設定時回傳預設值
func (s *MemoryStore) LoadPreferences(_ context.Context, userID string) (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefs, ok := s.prefs[userID]
	if !ok {
		return DefaultPreferences(), nil
	}
	prefs.DietaryRestrictions = append([]string{}, prefs.DietaryRestrictions...)
	return prefs, nil
}
