package history

import (
	"context"
	"time"
)

// Entry 使用者的一筆推薦紀錄
type Entry struct {
	Timestamp           time.Time `json:"timestamp"`
	Ailment             string    `json:"ailment"`
	Remedy              string    `json:"remedy"`
	Category            string    `json:"category"`
	SustainabilityScore float64   `json:"sustainability_score"`
	WeatherAdjusted     bool      `json:"weather_adjusted"`
}

// Preferences 使用者偏好
type Preferences struct {
	Language            string   `json:"language"`
	PreferredCategory   string   `json:"preferred_category,omitempty"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	SustainabilityFocus bool     `json:"sustainability_focus"`
}

// DefaultPreferences 尚未設定偏好時使用
func DefaultPreferences() Preferences {
	return Preferences{
		Language:            "en",
		DietaryRestrictions: []string{},
	}
}

// Store 使用者紀錄儲存
//
// 每次 Append 對單一使用者是一次原子寫入；同一使用者的並行寫入不保證順序。
type Store interface {
	Append(ctx context.Context, userID string, entry Entry) error
	ReadAll(ctx context.Context, userID string) ([]Entry, error)
	SavePreferences(ctx context.Context, userID string, prefs Preferences) error
	LoadPreferences(ctx context.Context, userID string) (Preferences, error)
}
