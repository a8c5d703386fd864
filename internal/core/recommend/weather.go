package recommend

import (
	"strings"

	"sipsync/internal/core/remedy"
)

const (
	coldBelowC = 15.0
	hotAboveC  = 25.0
)

var rainyConditions = map[string]bool{
	"rain":         true,
	"drizzle":      true,
	"thunderstorm": true,
}

// ClassifyWeather 依氣溫（攝氏）與天氣描述分類，溫度優先；無法分類時回傳 false
func ClassifyWeather(tempC float64, condition string) (remedy.Weather, bool) {
	switch {
	case tempC < coldBelowC:
		return remedy.Cold, true
	case tempC > hotAboveC:
		return remedy.Hot, true
	case rainyConditions[strings.ToLower(strings.TrimSpace(condition))]:
		return remedy.Rainy, true
	default:
		return "", false
	}
}
