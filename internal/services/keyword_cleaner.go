// internal/services/keyword_cleaner.go
package services

import (
	"sort"
	"strings"
	"unicode"
)

const (
	// maxKeywords 清洗后保留的关键短语上限
	maxKeywords = 15
	// minKeywordLen 关键短语最短字符数
	minKeywordLen = 3
)

// keywordDenylist 已知噪声短语，大小写不敏感的精确匹配
// 这些是上游关键短语提取偶发回显的界面用语，不是通用停用词表
var keywordDenylist = map[string]struct{}{
	"sentence count": {},
	"key sentences":  {},
	"new language":   {},
	"original words": {},
	"term frequency": {},
	"text preview":   {},
}

// CleanKeywords 把原始关键短语候选清洗为有界、去重、确定性排序的输出
// 步骤顺序不可调整：去空白 → 去上游编码伪迹 → 再去空白 → 过滤 → 去重 → 排序 → 截断。
// 后面的步骤依赖前面步骤已经执行（例如伪迹剥离会改变长度，必须在长度过滤之前）
func CleanKeywords(raw []string) []string {
	cleaned := make([]string, 0, len(raw))

	for _, candidate := range raw {
		s := strings.TrimSpace(candidate)
		s = stripLeadingArtifact(s)
		s = strings.TrimSpace(s)

		if !keepKeyword(s) {
			continue
		}
		cleaned = append(cleaned, s)
	}

	// 大小写不敏感去重，保留首次出现
	seen := make(map[string]struct{}, len(cleaned))
	deduped := cleaned[:0]
	for _, s := range cleaned {
		key := strings.ToLower(s)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, s)
	}

	// 按字符长度降序，等长保持去重后的相对顺序
	sort.SliceStable(deduped, func(i, j int) bool {
		return len([]rune(deduped[i])) > len([]rune(deduped[j]))
	})

	if len(deduped) > maxKeywords {
		deduped = deduped[:maxKeywords]
	}
	return deduped
}

// stripLeadingArtifact 剥离一个已知的上游编码缺陷：
// 候选以小写n开头且紧跟大写字母时，该n是转义换行残留，删掉它。
// 这是针对特定提供者缺陷的窄补丁，不要推广成通用规则
func stripLeadingArtifact(s string) string {
	runes := []rune(s)
	if len(runes) >= 2 && runes[0] == 'n' && unicode.IsUpper(runes[1]) {
		return string(runes[1:])
	}
	return s
}

// keepKeyword 过滤规则：太短、命中噪声表、不含字母、或纯标点/数字/下划线的候选一律丢弃
func keepKeyword(s string) bool {
	if len([]rune(s)) < minKeywordLen {
		return false
	}
	if _, denied := keywordDenylist[strings.ToLower(s)]; denied {
		return false
	}

	hasLetter := false
	onlyNoise := true
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if !unicode.IsPunct(r) && !unicode.IsDigit(r) && r != '_' {
			onlyNoise = false
		}
	}
	return hasLetter && !onlyNoise
}
