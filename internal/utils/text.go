// internal/utils/text.go
package utils

import (
	"strings"
	"unicode"
)

// NormalizeText 把任意空白串（含换行/制表符）折叠为单个空格并去除首尾空白
// 幂等：NormalizeText(NormalizeText(s)) == NormalizeText(s)
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// SampleText 返回text的前maxChars个字符（按rune计），长度不足时原样返回
// 硬截断，不感知句子边界；所有分析调用之前都先经过这里
func SampleText(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}

// TruncateWithEllipsis 截断到maxChars个字符并在被截断时追加省略号
func TruncateWithEllipsis(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + "…"
}
