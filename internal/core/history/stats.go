package history

import (
	"fmt"
	"math"
	"sort"
)

// Stats 使用者統計
type Stats struct {
	Total                  int     `json:"total"`
	UniqueAilments         int     `json:"unique_ailments"`
	AvgSustainability      float64 `json:"avg_sustainability"`
	MostCommonAilment      string  `json:"most_common_ailment,omitempty"`
	WeatherAdjustedPercent float64 `json:"weather_adjusted_percent"`
}

// Suggestion 依使用次數的常用推薦
type Suggestion struct {
	Remedy  string `json:"remedy"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

const maxSuggestions = 3

// Summarize 計算統計，同次數的症狀取最早出現者
func Summarize(entries []Entry) Stats {
	if len(entries) == 0 {
		return Stats{}
	}

	counts := make(map[string]int)
	var order []string
	var sustainability float64
	var adjusted int
	for _, e := range entries {
		if _, seen := counts[e.Ailment]; !seen {
			order = append(order, e.Ailment)
		}
		counts[e.Ailment]++
		sustainability += e.SustainabilityScore
		if e.WeatherAdjusted {
			adjusted++
		}
	}

	mostCommon := order[0]
	for _, ailment := range order[1:] {
		if counts[ailment] > counts[mostCommon] {
			mostCommon = ailment
		}
	}

	total := len(entries)
	return Stats{
		Total:                  total,
		UniqueAilments:         len(counts),
		AvgSustainability:      round2(sustainability / float64(total)),
		MostCommonAilment:      mostCommon,
		WeatherAdjustedPercent: round2(float64(adjusted) * 100 / float64(total)),
	}
}

// Suggest 使用次數最多的三個推薦，同次數依名稱排序
func Suggest(entries []Entry) []Suggestion {
	counts := make(map[string]int)
	for _, e := range entries {
		if e.Remedy != "" {
			counts[e.Remedy]++
		}
	}

	out := make([]Suggestion, 0, len(counts))
	for remedy, n := range counts {
		out = append(out, Suggestion{
			Remedy:  remedy,
			Count:   n,
			Message: fmt.Sprintf("You've found %s helpful %d times.", remedy, n),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Remedy < out[j].Remedy
	})
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
