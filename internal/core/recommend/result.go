package recommend

import (
	"sipsync/internal/core/matching"
	"sipsync/internal/core/remedy"
)

// Status 推薦結果狀態
type Status string

const (
	StatusSuccess Status = "success"
	StatusNoMatch Status = "no_match"
	StatusError   Status = "error"
)

// Result 推薦結果
//
// Status 為 success 時推薦相關欄位齊全；no_match 與 error 只帶 Ailment、
// Message、SeasonalRecommendations 與 FunFact。
type Result struct {
	Status  Status `json:"status"`
	Ailment string `json:"ailment"`

	Category            remedy.Category   `json:"category,omitempty"`
	Remedy              string            `json:"remedy,omitempty"`
	PersonalizedMessage string            `json:"personalized_message,omitempty"`
	Benefits            []string          `json:"benefits,omitempty"`
	Ingredients         []string          `json:"ingredients,omitempty"`
	PreparationTip      string            `json:"preparation_tip,omitempty"`
	SearchKeywords      string            `json:"search_keywords,omitempty"`
	WeatherAdjusted     bool              `json:"weather_adjusted"`
	Weather             remedy.Weather    `json:"weather,omitempty"`
	Severity            matching.Severity `json:"severity,omitempty"`
	Confidence          float64           `json:"confidence,omitempty"`
	Custom              bool              `json:"custom"`
	SustainabilityScore float64           `json:"sustainability_score,omitempty"`
	EcoTips             []string          `json:"eco_tips,omitempty"`
	CulturalOrigin      string            `json:"cultural_origin,omitempty"`
	ScientificNote      string            `json:"scientific_note,omitempty"`

	Message                 string   `json:"message,omitempty"`
	SeasonalRecommendations []string `json:"seasonal_recommendations,omitempty"`
	FunFact                 string   `json:"fun_fact,omitempty"`

	Language string `json:"language,omitempty"`
}

// Succeeded 是否為成功的推薦
func (r *Result) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

// Clone 深拷貝結果
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Benefits = cloneOrNil(r.Benefits)
	out.Ingredients = cloneOrNil(r.Ingredients)
	out.EcoTips = cloneOrNil(r.EcoTips)
	out.SeasonalRecommendations = cloneOrNil(r.SeasonalRecommendations)
	return &out
}

func cloneOrNil(src []string) []string {
	if src == nil {
		return nil
	}
	return append([]string(nil), src...)
}
