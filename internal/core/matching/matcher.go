package matching

import (
	"sort"
	"strings"
)

const (
	// SingleThreshold 單一最佳比對的最低分數
	SingleThreshold = 70
	// CandidateCutoff 候選清單的最低分數
	CandidateCutoff = 60
	// MaxCandidates 候選數量上限
	MaxCandidates = 3
	// DirectThreshold 高於此分數不需要再消歧義
	DirectThreshold = 90

	minContainedLen = 4
)

// Method 比對方式
type Method string

const (
	MethodExact         Method = "exact"
	MethodContainment   Method = "containment"
	MethodSynonym       Method = "synonym"
	MethodFuzzy         Method = "fuzzy"
	MethodDisambiguated Method = "disambiguated"
	MethodNone          Method = "none"
)

var methodRank = map[Method]int{
	MethodExact:       0,
	MethodContainment: 1,
	MethodSynonym:     2,
	MethodFuzzy:       3,
}

// Candidate 候選症狀
type Candidate struct {
	Key    string
	Score  int
	Method Method
}

// Matcher 症狀比對器，建立後唯讀
type Matcher struct {
	keys     []string
	synonyms map[string][]string
}

// NewMatcher 創建比對器；synonyms 為 key 對應的別名，可為 nil
func NewMatcher(keys []string, synonyms map[string][]string) *Matcher {
	m := &Matcher{
		keys:     make([]string, 0, len(keys)),
		synonyms: make(map[string][]string, len(synonyms)),
	}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			m.keys = append(m.keys, k)
		}
	}
	sort.Strings(m.keys)

	for key, alts := range synonyms {
		for _, alt := range alts {
			clean, _, err := Normalize(alt)
			if err != nil {
				continue
			}
			m.synonyms[key] = append(m.synonyms[key], clean)
		}
	}
	return m
}

// Match 使用指定的 key 集合找出最佳症狀
func Match(clean string, keys []string) (string, float64, bool) {
	return NewMatcher(keys, nil).Match(clean)
}

// Keys 已知症狀
func (m *Matcher) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Match 回傳最佳症狀與信心分數，低於 SingleThreshold 時回傳 false
func (m *Matcher) Match(clean string) (string, float64, bool) {
	best, ok := m.best(clean)
	if !ok || best.Score < SingleThreshold {
		return "", 0, false
	}
	return best.Key, float64(best.Score), true
}

// Candidates 分數不低於 CandidateCutoff 的前三名，分數高者在前，同分依 key 排序
func (m *Matcher) Candidates(clean string) []Candidate {
	scored := m.score(clean)
	out := make([]Candidate, 0, MaxCandidates)
	for _, c := range scored {
		if c.Score < CandidateCutoff {
			break
		}
		out = append(out, c)
		if len(out) == MaxCandidates {
			break
		}
	}
	return out
}

func (m *Matcher) best(clean string) (Candidate, bool) {
	scored := m.score(clean)
	if len(scored) == 0 {
		return Candidate{}, false
	}
	return scored[0], true
}

// score 計算所有 key 的分數並排序
func (m *Matcher) score(clean string) []Candidate {
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil
	}

	scored := make([]Candidate, 0, len(m.keys))
	for _, key := range m.keys {
		if method, ok := m.direct(clean, key); ok {
			scored = append(scored, Candidate{Key: key, Score: 100, Method: method})
			continue
		}
		scored = append(scored, Candidate{Key: key, Score: Similarity(clean, key), Method: MethodFuzzy})
	}

	// m.keys 已排序，穩定排序保留同分時的 key 順序
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return methodRank[scored[i].Method] < methodRank[scored[j].Method]
	})
	return scored
}

// direct 完全相同、詞邊界包含或別名命中
func (m *Matcher) direct(clean, key string) (Method, bool) {
	if clean == key {
		return MethodExact, true
	}
	if containsWords(clean, key) {
		return MethodContainment, true
	}
	if len(strings.ReplaceAll(clean, " ", "")) >= minContainedLen && containsWords(key, clean) {
		return MethodContainment, true
	}
	for _, alt := range m.synonyms[key] {
		if containsWords(clean, alt) {
			return MethodSynonym, true
		}
	}
	return "", false
}

// containsWords 以完整單字為單位判斷 haystack 是否包含 needle
func containsWords(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}
