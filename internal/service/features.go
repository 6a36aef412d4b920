package service

import (
	"strings"
	"time"
)

// StringSet 归一化后的标签集合（小写、去空白）
type StringSet map[string]struct{}

// Has 是否包含
func (s StringSet) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// ParseTokens 解析逗号分隔的标签串为集合
func ParseTokens(value string) StringSet {
	set := make(StringSet)
	if value == "" {
		return set
	}
	for _, part := range strings.Split(value, ",") {
		token := strings.ToLower(strings.TrimSpace(part))
		if token != "" {
			set[token] = struct{}{}
		}
	}
	return set
}

// Jaccard 两集合的 Jaccard 系数，任一为空返回 0
func Jaccard(left, right StringSet) float64 {
	if len(left) == 0 || len(right) == 0 {
		return 0
	}
	inter := 0
	for item := range left {
		if right.Has(item) {
			inter++
		}
	}
	union := len(left) + len(right) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// ExtractYear 取上映年份，未知返回 0
func ExtractYear(releaseDate *time.Time) int {
	if releaseDate == nil {
		return 0
	}
	return releaseDate.Year()
}

// FilterStyle 过滤出风格关键词白名单内的标签
func FilterStyle(keywords StringSet) StringSet {
	style := make(StringSet)
	for kw := range keywords {
		if _, ok := styleKeywords[kw]; ok {
			style[kw] = struct{}{}
		}
	}
	return style
}

// NormalizeLanguage 语言码归一化
func NormalizeLanguage(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
