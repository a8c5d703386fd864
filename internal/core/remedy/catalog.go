package remedy

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"sipsync/internal/pkg/common"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed catalog.json
var defaultCatalog []byte

var titleCaser = cases.Title(language.English)

// IntegrityError 知識庫資料缺漏，載入時即失敗
type IntegrityError struct {
	Key    string
	Reason string
}

func (e *IntegrityError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("catalog integrity: %s", e.Reason)
	}
	return fmt.Sprintf("catalog integrity: %q %s", e.Key, e.Reason)
}

// Catalog 唯讀知識庫，載入後不再變動，可供多個請求同時讀取
type Catalog struct {
	records map[string]Record
	keys    []string
}

// LoadDefault 載入內建知識庫
func LoadDefault() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile 從檔案載入知識庫，path 為空時使用內建資料
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return LoadDefault()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load 解析並驗證知識庫
func Load(r io.Reader) (*Catalog, error) {
	var list []Record
	if err := common.DecodeJSONStrict(r, &list); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(list)
}

// New 由資料列建立知識庫，任何一筆不完整都回傳 IntegrityError
func New(list []Record) (*Catalog, error) {
	if len(list) == 0 {
		return nil, &IntegrityError{Reason: "catalog is empty"}
	}

	c := &Catalog{records: make(map[string]Record, len(list))}
	for _, item := range list {
		rec := item.clone()
		rec.Key = strings.ToLower(strings.TrimSpace(rec.Key))
		if err := validate(rec); err != nil {
			return nil, err
		}
		if _, dup := c.records[rec.Key]; dup {
			return nil, &IntegrityError{Key: rec.Key, Reason: "is defined twice"}
		}
		for i, s := range rec.Synonyms {
			rec.Synonyms[i] = strings.ToLower(strings.TrimSpace(s))
		}
		c.records[rec.Key] = rec
		c.keys = append(c.keys, rec.Key)
	}
	sort.Strings(c.keys)
	return c, nil
}

func validate(rec Record) error {
	if rec.Key == "" {
		return &IntegrityError{Reason: "record without key"}
	}
	for _, cat := range Categories {
		if strings.TrimSpace(rec.Variants[cat]) == "" {
			return &IntegrityError{Key: rec.Key, Reason: fmt.Sprintf("is missing variant %s", cat)}
		}
	}
	switch {
	case len(rec.Benefits) == 0:
		return &IntegrityError{Key: rec.Key, Reason: "has no benefits"}
	case len(rec.Ingredients) == 0:
		return &IntegrityError{Key: rec.Key, Reason: "has no ingredients"}
	case strings.TrimSpace(rec.PreparationTip) == "":
		return &IntegrityError{Key: rec.Key, Reason: "has no preparation tip"}
	case strings.TrimSpace(rec.SearchKeywords) == "":
		return &IntegrityError{Key: rec.Key, Reason: "has no search keywords"}
	case rec.SustainabilityScore < 0 || rec.SustainabilityScore > 5:
		return &IntegrityError{Key: rec.Key, Reason: "has sustainability score outside 0-5"}
	}
	for _, b := range rec.Benefits {
		if strings.TrimSpace(b) == "" {
			return &IntegrityError{Key: rec.Key, Reason: "has an empty benefit"}
		}
	}
	return nil
}

// Keys 已知症狀，依字母排序
func (c *Catalog) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Lookup 取得症狀資料的副本
func (c *Catalog) Lookup(key string) (Record, bool) {
	rec, ok := c.records[key]
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// Synonyms 症狀別名表
func (c *Catalog) Synonyms() map[string][]string {
	out := make(map[string][]string, len(c.records))
	for key, rec := range c.records {
		if len(rec.Synonyms) > 0 {
			out[key] = append([]string(nil), rec.Synonyms...)
		}
	}
	return out
}

// Len 症狀數量
func (c *Catalog) Len() int {
	return len(c.keys)
}
