package matching

import (
	"context"
	"fmt"
	"strings"

	"sipsync/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	disambiguationMaxTokens   = 20
	disambiguationTemperature = 0.0
)

// Generator 文字生成服務
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// Resolution 比對結果
type Resolution struct {
	Key        string
	Confidence float64
	Method     Method
}

// Resolve 找出症狀，多個候選時請生成服務挑選
//
// 最高分超過 DirectThreshold 直接採用；候選超過一個時詢問 gen，答案必須是
// 候選之一。詢問失敗或 gen 為 nil 時，最高分超過 SingleThreshold 才採用。
func (m *Matcher) Resolve(ctx context.Context, gen Generator, clean string) (Resolution, bool) {
	candidates := m.Candidates(clean)
	if len(candidates) == 0 {
		return Resolution{Method: MethodNone}, false
	}

	top := candidates[0]
	if top.Score > DirectThreshold {
		return Resolution{Key: top.Key, Confidence: float64(top.Score), Method: top.Method}, true
	}

	if len(candidates) > 1 && gen != nil {
		if key, ok := askGenerator(ctx, gen, clean, candidates); ok {
			for _, c := range candidates {
				if c.Key == key {
					return Resolution{Key: key, Confidence: float64(c.Score), Method: MethodDisambiguated}, true
				}
			}
		}
	}

	if top.Score > SingleThreshold {
		return Resolution{Key: top.Key, Confidence: float64(top.Score), Method: MethodFuzzy}, true
	}
	return Resolution{Method: MethodNone}, false
}

func askGenerator(ctx context.Context, gen Generator, clean string, candidates []Candidate) (string, bool) {
	answer, err := gen.Generate(ctx, disambiguationPrompt(clean, candidates),
		disambiguationMaxTokens, disambiguationTemperature)
	if err != nil {
		common.LogCollaboratorFailure("消歧義失敗，使用最高分候選", err, zap.String("ailment", clean))
		return "", false
	}

	key := cleanAnswer(answer)
	for _, c := range candidates {
		if c.Key == key {
			return key, true
		}
	}
	common.LogDebug("消歧義答案不在候選中", zap.String("answer", answer))
	return "", false
}

func disambiguationPrompt(clean string, candidates []Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A user describes how they feel: %q.\n", clean)
	b.WriteString("Which of these ailments is the most appropriate match? Consider synonyms and related symptoms.\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s\n", c.Key)
	}
	b.WriteString("Answer with the ailment name exactly as listed and nothing else.")
	return b.String()
}

// cleanAnswer 去除引號、句點與大小寫差異
func cleanAnswer(answer string) string {
	answer = strings.ToLower(strings.TrimSpace(answer))
	answer = strings.Trim(answer, "\"'`.!-* \t\n")
	return strings.Join(strings.Fields(answer), " ")
}
