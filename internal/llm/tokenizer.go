// internal/llm/tokenizer.go
package llm

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer 封装tiktoken用于提示词token预算
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

var (
	sharedTokenizer *Tokenizer
	tokenizerErr    error
	tokenizerOnce   sync.Once
)

// NewTokenizer 按指定编码名创建Tokenizer（如cl100k_base）
func NewTokenizer(encodingName string) (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("加载编码 %q 失败: %w", encodingName, err)
	}
	return &Tokenizer{encoding: enc}, nil
}

// SharedTokenizer 返回进程级共享的cl100k_base tokenizer
// 加载失败时返回错误，调用方应降级为按字符数预算
func SharedTokenizer() (*Tokenizer, error) {
	tokenizerOnce.Do(func() {
		sharedTokenizer, tokenizerErr = NewTokenizer("cl100k_base")
	})
	return sharedTokenizer, tokenizerErr
}

// CountTokens 返回文本的token数
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// TruncateToTokens 把文本截断到不超过maxTokens个token
func (t *Tokenizer) TruncateToTokens(text string, maxTokens int) string {
	tokens := t.encoding.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return t.encoding.Decode(tokens[:maxTokens])
}
