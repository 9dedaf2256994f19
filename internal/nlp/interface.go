// internal/nlp/interface.go
package nlp

import (
	"context"
	"errors"
)

// 错误定义
var ErrUnknownProvider = errors.New("未知的文本分析提供者")

// DetectedLanguage 语言检测结果
type DetectedLanguage struct {
	Name    string  `json:"name"`
	Iso6391 string  `json:"iso6391_name"`
	Score   float64 `json:"confidence_score,omitempty"`
}

// RankedSentence 抽取式摘要返回的带评分句子
// RankScore决定句子是否入选，Offset决定最终输出顺序，两者必须分开解释
type RankedSentence struct {
	Text      string  `json:"text"`
	RankScore float64 `json:"rank_score"`
	Offset    int     `json:"offset"`
}

// Provider 定义文本分析能力提供者必须实现的接口
// 三个能力相互独立：任何一个失败都不应影响其他能力的调用
type Provider interface {
	// 初始化提供者，传入配置
	Initialize(config map[string]string) error

	// 获取提供者名称
	GetName() string

	// 语言检测
	DetectLanguage(ctx context.Context, text string) (*DetectedLanguage, error)

	// 关键短语提取，返回未清洗的原始候选列表
	ExtractKeyPhrases(ctx context.Context, text string) ([]string, error)

	// 抽取式摘要，返回带rank评分和原文偏移量的句子
	ExtractiveSummarize(ctx context.Context, text string, maxSentences int) ([]RankedSentence, error)
}

// 注册表和工厂函数类型
type ProviderFactory func() Provider

var providers = make(map[string]ProviderFactory)

// Register 注册提供者工厂
func Register(name string, factory ProviderFactory) {
	providers[name] = factory
}

// GetProvider 创建指定名称的提供者实例
func GetProvider(name string, config map[string]string) (Provider, error) {
	factory, exists := providers[name]
	if !exists {
		return nil, ErrUnknownProvider
	}

	provider := factory()
	err := provider.Initialize(config)
	return provider, err
}

// ListProviders 返回所有已注册的提供者名称
func ListProviders() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	return names
}
