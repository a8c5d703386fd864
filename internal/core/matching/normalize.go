package matching

import (
	"strings"
	"unicode"

	"sipsync/internal/pkg/common"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Severity 症狀嚴重程度
type Severity string

const (
	Mild     Severity = "mild"
	Moderate Severity = "moderate"
	Severe   Severity = "severe"
)

var (
	severeWords   = []string{"severe", "terrible", "extreme", "unbearable", "awful"}
	moderateWords = []string{"moderate", "quite", "rather", "pretty", "fairly"}
)

// Normalize 清理使用者輸入並判斷嚴重程度
//
// 轉小寫、去除重音、只保留 ASCII 字母與空白，連續空白合併為一個。
// 清理後為空字串時回傳 common.ErrInvalidInput。
func Normalize(raw string) (string, Severity, error) {
	if strings.TrimSpace(raw) == "" {
		return "", Mild, common.ErrInvalidInput
	}

	folded, _, err := transform.String(foldAccents(), strings.ToLower(raw))
	if err != nil {
		return "", Mild, common.ErrInvalidInput
	}

	stripped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, folded)

	clean := strings.Join(strings.Fields(stripped), " ")
	if clean == "" {
		return "", Mild, common.ErrInvalidInput
	}

	return clean, severityOf(clean), nil
}

// foldAccents 拆解組合字元後移除變音符號，例如 é -> e
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

func severityOf(clean string) Severity {
	for _, w := range severeWords {
		if strings.Contains(clean, w) {
			return Severe
		}
	}
	for _, w := range moderateWords {
		if strings.Contains(clean, w) {
			return Moderate
		}
	}
	return Mild
}
