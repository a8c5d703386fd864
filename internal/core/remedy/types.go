package remedy

import "strings"

// Category 推薦形式
type Category string

const (
	Tea       Category = "tea"
	Coffee    Category = "coffee"
	Milkshake Category = "milkshake"
	LightFood Category = "light_food"
)

// Categories 介面提供的所有類別，每筆知識庫資料都必須涵蓋
var Categories = []Category{Tea, Coffee, Milkshake, LightFood}

// ParseCategory 解析類別字串，無法辨識時回傳 false
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Title 顯示用名稱，例如 "Light Food"
func (c Category) Title() string {
	return titleCaser.String(strings.ReplaceAll(string(c), "_", " "))
}

// Weather 分類後的天氣狀況
type Weather string

const (
	Cold  Weather = "cold"
	Hot   Weather = "hot"
	Rainy Weather = "rainy"
)

// ParseWeather 解析使用者指定的天氣
func ParseWeather(s string) (Weather, bool) {
	switch w := Weather(strings.ToLower(strings.TrimSpace(s))); w {
	case Cold, Hot, Rainy:
		return w, true
	default:
		return "", false
	}
}

// Record 單一症狀的知識庫資料
type Record struct {
	Key                 string              `json:"key"`
	Variants            map[Category]string `json:"variants"`
	Benefits            []string            `json:"benefits"`
	Ingredients         []string            `json:"ingredients"`
	PreparationTip      string              `json:"preparation_tip"`
	SearchKeywords      string              `json:"search_keywords"`
	SustainabilityScore float64             `json:"sustainability_score,omitempty"`
	EcoTips             []string            `json:"eco_tips,omitempty"`
	CulturalOrigin      string              `json:"cultural_origin,omitempty"`
	ScientificNote      string              `json:"scientific_note,omitempty"`
	Synonyms            []string            `json:"synonyms,omitempty"`
}

// clone 深拷貝，呼叫端修改不會影響知識庫
func (r Record) clone() Record {
	out := r
	out.Variants = make(map[Category]string, len(r.Variants))
	for k, v := range r.Variants {
		out.Variants[k] = v
	}
	out.Benefits = append([]string(nil), r.Benefits...)
	out.Ingredients = append([]string(nil), r.Ingredients...)
	out.EcoTips = append([]string(nil), r.EcoTips...)
	out.Synonyms = append([]string(nil), r.Synonyms...)
	return out
}
