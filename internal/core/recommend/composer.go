package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"sipsync/internal/core/matching"
	"sipsync/internal/core/remedy"
	"sipsync/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	messageMaxTokens   = 200
	messageTemperature = 0.7
	customMaxTokens    = 300
	customTemperature  = 0.7

	customSustainability = 4.0

	noMatchMessage     = "We couldn't find a remedy for how you're feeling. Try describing your symptoms in a different way."
	unavailableMessage = "Our recommendation service is unavailable right now. In the meantime, here are some seasonal favorites."
)

// Generator 文字生成服務
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// Input 組合推薦所需的資料
type Input struct {
	Clean      string
	Severity   matching.Severity
	Key        string // 比對到的症狀，空字串代表沒有比對結果
	Confidence float64
	Category   remedy.Category
	Weather    remedy.Weather // 空字串代表沒有天氣資訊
}

// Composer 組合推薦結果
type Composer struct {
	catalog *remedy.Catalog
	gen     Generator
	now     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// ComposerOption Composer 選項
type ComposerOption func(*Composer)

// WithClock 指定時鐘，決定當季推薦
func WithClock(now func() time.Time) ComposerOption {
	return func(c *Composer) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRandSource 指定冷知識的隨機來源
func WithRandSource(src rand.Source) ComposerOption {
	return func(c *Composer) {
		if src != nil {
			c.rng = rand.New(src)
		}
	}
}

// NewComposer 創建 Composer，gen 可為 nil
func NewComposer(catalog *remedy.Catalog, gen Generator, opts ...ComposerOption) *Composer {
	c := &Composer{
		catalog: catalog,
		gen:     gen,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose 產生推薦結果，單次執行不重試
func (c *Composer) Compose(ctx context.Context, in Input) (*Result, error) {
	if _, ok := remedy.ParseCategory(string(in.Category)); !ok {
		return nil, common.ErrInvalidCategory
	}

	if in.Key == "" {
		return c.composeCustom(ctx, in), nil
	}

	rec, ok := c.catalog.Lookup(in.Key)
	if !ok {
		return nil, fmt.Errorf("ailment %q is not in the catalog", in.Key)
	}
	return c.composeMatched(ctx, in, rec), nil
}

func (c *Composer) composeMatched(ctx context.Context, in Input, rec remedy.Record) *Result {
	res := &Result{
		Status:              StatusSuccess,
		Ailment:             rec.Key,
		Category:            in.Category,
		Remedy:              rec.Variants[in.Category],
		Benefits:            rec.Benefits,
		Ingredients:         rec.Ingredients,
		PreparationTip:      rec.PreparationTip,
		SearchKeywords:      rec.SearchKeywords,
		Severity:            in.Severity,
		Confidence:          in.Confidence,
		SustainabilityScore: rec.SustainabilityScore,
		EcoTips:             rec.EcoTips,
		CulturalOrigin:      rec.CulturalOrigin,
		ScientificNote:      rec.ScientificNote,
	}

	if in.Weather != "" {
		if boost, ok := remedy.WeatherBoost(in.Weather); ok {
			res.Ingredients = append(res.Ingredients, boost.Ingredients...)
			res.PreparationTip += " Weather tip: " + boost.Note
			res.WeatherAdjusted = true
			res.Weather = in.Weather
		}
	}

	if c.gen != nil {
		msg, err := c.gen.Generate(ctx, personalizedPrompt(res, in.Severity), messageMaxTokens, messageTemperature)
		if err == nil && strings.TrimSpace(msg) != "" {
			res.PersonalizedMessage = strings.TrimSpace(msg)
			return res
		}
		if err != nil {
			common.LogCollaboratorFailure("個人化訊息生成失敗，使用範本", err, zap.String("ailment", rec.Key))
		}
	}

	res.PersonalizedMessage = templatedMessage(res)
	return res
}

func (c *Composer) composeCustom(ctx context.Context, in Input) *Result {
	if c.gen == nil {
		return c.fallback(in.Clean, common.NewConfigError("text-generation", "AI provider"))
	}

	text, err := c.gen.Generate(ctx, customPrompt(in), customMaxTokens, customTemperature)
	if err == nil && strings.TrimSpace(text) == "" {
		err = common.NewCollaboratorError("text-generation", common.KindDeclined, nil)
	}
	if err != nil {
		common.LogCollaboratorFailure("自訂推薦生成失敗", err, zap.String("ailment", in.Clean))
		return c.fallback(in.Clean, err)
	}

	text = strings.TrimSpace(text)
	res := &Result{
		Status:              StatusSuccess,
		Ailment:             in.Clean,
		Category:            in.Category,
		Remedy:              fmt.Sprintf("Custom %s Recommendation", in.Category.Title()),
		PersonalizedMessage: text,
		Benefits:            []string{"Relieves " + in.Clean, "Promotes wellness"},
		Ingredients:         []string{"Natural ingredients", "Based on availability"},
		PreparationTip:      text,
		SearchKeywords:      "natural remedies for " + in.Clean,
		Severity:            in.Severity,
		Custom:              true,
		SustainabilityScore: customSustainability,
		EcoTips:             []string{"Choose organic ingredients", "Use reusable containers"},
		CulturalOrigin:      "Various Traditional Medicines",
		ScientificNote:      "Based on natural healing principles",
	}
	if in.Weather != "" {
		res.Weather = in.Weather
		res.WeatherAdjusted = true
	}
	return res
}

// fallback 生成失敗時的結果；服務無法連線為 error，其餘為 no_match
func (c *Composer) fallback(ailment string, err error) *Result {
	status := StatusNoMatch
	message := noMatchMessage
	if unavailable(err) {
		status = StatusError
		message = unavailableMessage
	}

	return &Result{
		Status:                  status,
		Ailment:                 ailment,
		Message:                 message,
		SeasonalRecommendations: remedy.SeasonalRemedies(c.now().Month()),
		FunFact:                 c.funFact(),
	}
}

func unavailable(err error) bool {
	ce, ok := common.AsCollaboratorError(err)
	if !ok {
		return true
	}
	return ce.Kind == common.KindTimeout || ce.Kind == common.KindUnreachable
}

func (c *Composer) funFact() string {
	facts := remedy.FunFacts()
	c.mu.Lock()
	defer c.mu.Unlock()
	return facts[c.rng.Intn(len(facts))]
}

// templatedMessage 無法生成時的固定格式訊息
func templatedMessage(res *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "For your %s, I recommend %s.", res.Ailment, res.Remedy)
	if len(res.Benefits) > 0 {
		fmt.Fprintf(&b, " It's known for its %s properties", strings.ToLower(res.Benefits[0]))
		if res.CulturalOrigin != "" {
			fmt.Fprintf(&b, " and has roots in %s", res.CulturalOrigin)
		}
		b.WriteString(".")
	}
	if note := strings.TrimRight(strings.TrimSpace(res.ScientificNote), "."); note != "" {
		fmt.Fprintf(&b, " %s.", note)
	}
	fmt.Fprintf(&b, " Here's a tip: %s", res.PreparationTip)
	return b.String()
}

func personalizedPrompt(res *Result, severity matching.Severity) string {
	var extra strings.Builder
	if res.CulturalOrigin != "" {
		fmt.Fprintf(&extra, "- Cultural origin: %s\n", res.CulturalOrigin)
	}
	if res.ScientificNote != "" {
		fmt.Fprintf(&extra, "- Scientific note: %s\n", res.ScientificNote)
	}

	return fmt.Sprintf(`Task: Create a personalized recommendation for someone with %s (%s).

Details:
- Recommended %s: %s
- Key benefits: %s
- Preparation tip: %s
%s
Instructions:
1. Begin with a warm, empathetic greeting acknowledging their specific ailment.
2. Explain why %s is particularly suitable for their condition.
3. Mention 1-2 specific active compounds or properties that make it effective.
4. Add the preparation tip to your recommendation.
5. End with an encouraging note about relief or wellbeing.

Keep your response friendly, informative, and under 100 words. Avoid medical claims that sound too definitive.`,
		res.Ailment, severity,
		strings.ToLower(res.Category.Title()), res.Remedy,
		common.StringSliceToString(res.Benefits),
		res.PreparationTip,
		extra.String(),
		res.Remedy,
	)
}

func customPrompt(in Input) string {
	weather := "unknown"
	if in.Weather != "" {
		weather = string(in.Weather)
	}
	return fmt.Sprintf(`Task: Suggest a natural %s remedy for someone who says they have: %q.

Details:
- Severity: %s
- Weather: %s

Instructions:
1. Name one specific %s and its key ingredients.
2. Explain briefly why it may help.
3. Give a short preparation tip.

Keep your response friendly and under 120 words. Avoid medical claims that sound too definitive.`,
		strings.ToLower(in.Category.Title()), in.Clean, in.Severity, weather,
		strings.ToLower(in.Category.Title()),
	)
}
