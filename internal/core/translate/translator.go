package translate

import (
	"context"
	"fmt"
	"strings"

	"sipsync/internal/core/recommend"
	"sipsync/internal/pkg/common"

	"golang.org/x/text/language"
)

const (
	collaboratorName     = "translation"
	translateMaxTokens   = 800
	translateTemperature = 0.2
)

// Languages 支援的語言
var Languages = map[string]string{
	"en": "English",
	"fr": "French",
	"es": "Spanish",
	"zh": "Chinese",
	"hi": "Hindi",
	"ar": "Arabic",
	"bn": "Bengali",
	"pt": "Portuguese",
	"ru": "Russian",
	"ja": "Japanese",
}

// Generator 文字生成服務
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// Translator 透過文字生成服務翻譯推薦結果
type Translator struct {
	gen Generator
}

// fields 需要翻譯的欄位
type fields struct {
	Remedy              string   `json:"remedy,omitempty"`
	PersonalizedMessage string   `json:"personalized_message,omitempty"`
	PreparationTip      string   `json:"preparation_tip,omitempty"`
	Benefits            []string `json:"benefits,omitempty"`
	Ingredients         []string `json:"ingredients,omitempty"`
	EcoTips             []string `json:"eco_tips,omitempty"`
	CulturalOrigin      string   `json:"cultural_origin,omitempty"`
	ScientificNote      string   `json:"scientific_note,omitempty"`
	Message             string   `json:"message,omitempty"`
	FunFact             string   `json:"fun_fact,omitempty"`
}

// NewTranslator 創建翻譯器
func NewTranslator(gen Generator) *Translator {
	return &Translator{gen: gen}
}

// Base 將語言標籤正規化為兩字母代碼，例如 zh-TW -> zh
func Base(lang string) (string, bool) {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	code := base.String()
	_, ok := Languages[code]
	return code, ok
}

// Supported 是否支援該語言
func (t *Translator) Supported(lang string) bool {
	_, ok := Base(lang)
	return ok
}

// Translate 翻譯結果中給使用者看的文字，回傳新的結果
func (t *Translator) Translate(ctx context.Context, res *recommend.Result, lang string) (*recommend.Result, error) {
	code, ok := Base(lang)
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", lang)
	}
	if code == "en" {
		return res, nil
	}
	if t.gen == nil {
		return nil, common.NewConfigError(collaboratorName, "AI provider")
	}

	src := fields{
		Remedy:              res.Remedy,
		PersonalizedMessage: res.PersonalizedMessage,
		PreparationTip:      res.PreparationTip,
		Benefits:            res.Benefits,
		Ingredients:         res.Ingredients,
		EcoTips:             res.EcoTips,
		CulturalOrigin:      res.CulturalOrigin,
		ScientificNote:      res.ScientificNote,
		Message:             res.Message,
		FunFact:             res.FunFact,
	}
	payload, err := common.ToJSON(src)
	if err != nil {
		return nil, fmt.Errorf("failed to encode translation payload: %w", err)
	}

	answer, err := t.gen.Generate(ctx, prompt(Languages[code], payload), translateMaxTokens, translateTemperature)
	if err != nil {
		return nil, err
	}

	var dst fields
	if err := common.ParseJSON(extractJSON(answer), &dst); err != nil {
		return nil, common.NewCollaboratorError(collaboratorName, common.KindMalformed,
			fmt.Errorf("failed to parse translation: %w", err))
	}

	out := res.Clone()
	out.Remedy = pick(dst.Remedy, res.Remedy)
	out.PersonalizedMessage = pick(dst.PersonalizedMessage, res.PersonalizedMessage)
	out.PreparationTip = pick(dst.PreparationTip, res.PreparationTip)
	out.Benefits = pickList(dst.Benefits, out.Benefits)
	out.Ingredients = pickList(dst.Ingredients, out.Ingredients)
	out.EcoTips = pickList(dst.EcoTips, out.EcoTips)
	out.CulturalOrigin = pick(dst.CulturalOrigin, res.CulturalOrigin)
	out.ScientificNote = pick(dst.ScientificNote, res.ScientificNote)
	out.Message = pick(dst.Message, res.Message)
	out.FunFact = pick(dst.FunFact, res.FunFact)
	out.Language = code
	return out, nil
}

func prompt(languageName, payload string) string {
	return fmt.Sprintf(`Translate every string value in the following JSON object into %s.
Keep the keys and the number of items in each list unchanged.
Return only the translated JSON object.

%s`, languageName, payload)
}

// extractJSON 去除 markdown 區塊與前後說明文字
func extractJSON(answer string) string {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end < start {
		return answer
	}
	return answer[start : end+1]
}

func pick(translated, original string) string {
	if strings.TrimSpace(original) == "" || strings.TrimSpace(translated) == "" {
		return original
	}
	return strings.TrimSpace(translated)
}

// pickList 數量不一致時保留原文
func pickList(translated, original []string) []string {
	if len(translated) != len(original) {
		return original
	}
	return translated
}
