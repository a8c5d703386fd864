package recommend

import (
	"context"
	"strings"
	"time"

	"sipsync/internal/core/history"
	"sipsync/internal/core/matching"
	"sipsync/internal/core/remedy"
	"sipsync/internal/core/weather"
	"sipsync/internal/observability/metrics"
	"sipsync/internal/pkg/common"

	"go.uber.org/zap"
)

// WeatherSource 目前天氣來源
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) (*weather.Reading, error)
}

// HistoryRecorder 推薦紀錄寫入
type HistoryRecorder interface {
	Append(ctx context.Context, userID string, entry history.Entry) error
}

// Translator 結果翻譯
type Translator interface {
	Translate(ctx context.Context, res *Result, lang string) (*Result, error)
	Supported(lang string) bool
}

// Request 推薦請求
type Request struct {
	Text      string   `json:"text"`
	Category  string   `json:"category"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Weather   string   `json:"weather,omitempty"`
	UserID    string   `json:"user_id,omitempty"`
	Language  string   `json:"language,omitempty"`
}

// Dependencies 推薦服務的相依元件，除 Catalog 外皆可為 nil
type Dependencies struct {
	Catalog    *remedy.Catalog
	Generator  Generator
	Weather    WeatherSource
	History    HistoryRecorder
	Translator Translator
	Metrics    *metrics.Metrics
	Now        func() time.Time
	Options    []ComposerOption
}

// Service 推薦服務
type Service struct {
	matcher    *matching.Matcher
	composer   *Composer
	gen        Generator
	weather    WeatherSource
	history    HistoryRecorder
	translator Translator
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewService 創建推薦服務
func NewService(deps Dependencies) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	opts := append([]ComposerOption{WithClock(now)}, deps.Options...)

	return &Service{
		matcher:    matching.NewMatcher(deps.Catalog.Keys(), deps.Catalog.Synonyms()),
		composer:   NewComposer(deps.Catalog, deps.Generator, opts...),
		gen:        deps.Generator,
		weather:    deps.Weather,
		history:    deps.History,
		translator: deps.Translator,
		metrics:    deps.Metrics,
		now:        now,
	}
}

// Recommend 由使用者描述產生推薦
//
// 輸入錯誤在呼叫任何外部服務前回傳 ValidationError；外部服務失敗只記錄，
// 結果一定是 success、no_match 或 error 其中之一。
func (s *Service) Recommend(ctx context.Context, req Request) (*Result, error) {
	clean, severity, err := matching.Normalize(req.Text)
	if err != nil {
		return nil, err
	}

	category, ok := remedy.ParseCategory(req.Category)
	if !ok {
		return nil, common.ErrInvalidCategory
	}

	if err := validateLocation(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}

	var override remedy.Weather
	if strings.TrimSpace(req.Weather) != "" {
		if override, ok = remedy.ParseWeather(req.Weather); !ok {
			return nil, common.ErrInvalidWeather
		}
	}

	userID := strings.TrimSpace(req.UserID)
	w := override
	if w == "" && req.Latitude != nil {
		w = s.currentWeather(ctx, *req.Latitude, *req.Longitude)
	}

	resolution, matched := s.matcher.Resolve(ctx, s.gen, clean)
	s.metrics.ObserveMatch(string(resolution.Method))

	in := Input{
		Clean:    clean,
		Severity: severity,
		Category: category,
		Weather:  w,
	}
	if matched {
		in.Key = resolution.Key
		in.Confidence = resolution.Confidence
	}

	res, err := s.composer.Compose(ctx, in)
	if err != nil {
		return nil, err
	}

	if userID != "" && res.Succeeded() {
		s.record(ctx, userID, res)
	}

	res = s.translate(ctx, res, req.Language)

	s.metrics.ObserveRecommendation(string(res.Status), res.Custom)
	common.LogInfo("推薦完成",
		zap.String("status", string(res.Status)),
		zap.String("ailment", res.Ailment),
		zap.String("method", string(resolution.Method)),
		zap.Bool("custom", res.Custom),
	)
	return res, nil
}

func validateLocation(lat, lon *float64) error {
	if lat == nil && lon == nil {
		return nil
	}
	if lat == nil || lon == nil {
		return common.ErrInvalidLocation
	}
	if *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		return common.ErrInvalidLocation
	}
	return nil
}

// currentWeather 查詢並分類天氣，失敗時視為沒有天氣資訊
func (s *Service) currentWeather(ctx context.Context, lat, lon float64) remedy.Weather {
	if s.weather == nil {
		return ""
	}
	reading, err := s.weather.Current(ctx, lat, lon)
	if err != nil {
		common.LogCollaboratorFailure("天氣查詢失敗", err)
		return ""
	}
	w, ok := ClassifyWeather(reading.TempC, reading.Condition)
	if !ok {
		return ""
	}
	return w
}

// record 寫入使用者紀錄，失敗不影響結果
func (s *Service) record(ctx context.Context, userID string, res *Result) {
	if s.history == nil {
		return
	}
	entry := history.Entry{
		Timestamp:           s.now().UTC(),
		Ailment:             res.Ailment,
		Remedy:              res.Remedy,
		Category:            string(res.Category),
		SustainabilityScore: res.SustainabilityScore,
		WeatherAdjusted:     res.WeatherAdjusted,
	}
	if err := s.history.Append(ctx, userID, entry); err != nil {
		common.LogWarn("紀錄寫入失敗", zap.String("user_id", userID), zap.Error(err))
	}
}

// translate 非英文時翻譯結果，失敗時保留原文
func (s *Service) translate(ctx context.Context, res *Result, lang string) *Result {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" || lang == "en" || s.translator == nil {
		return res
	}
	if !s.translator.Supported(lang) {
		common.LogDebug("不支援的語言，維持英文", zap.String("language", lang))
		return res
	}

	translated, err := s.translator.Translate(ctx, res, lang)
	if err != nil {
		common.LogCollaboratorFailure("翻譯失敗，維持英文", err, zap.String("language", lang))
		return res
	}
	return translated
}
