// internal/models/analysis.go
package models

// AnalysisResult 文本分析的统一结果
// 所有字段始终出现在响应中；上游数据缺失时对应字段为null/空数组，而不是省略字段
type AnalysisResult struct {
	DetectedLanguage    *string  `json:"detectedLanguage"`
	DetectedLanguageIso *string  `json:"detectedLanguageIso"`
	Summary             *string  `json:"summary"`
	Keywords            []string `json:"keywords"`
	TextPreview         *string  `json:"textPreview"`
	TextAnalyticsError  *string  `json:"textAnalyticsError"`
}

// NewEmptyAnalysisResult 创建一个所有字段为空的分析结果
// keywords保证为空数组而不是null，保持线上契约稳定
func NewEmptyAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		Keywords: []string{},
	}
}

// SummaryMode 摘要生成模式
type SummaryMode string

const (
	// SummaryModeExtractive 抽取式摘要：从原文中选取并重排句子
	SummaryModeExtractive SummaryMode = "extractive"
	// SummaryModeAbstractive 生成式摘要：重新措辞改述原文
	SummaryModeAbstractive SummaryMode = "abstractive"
)

// AbstractiveRequest 生成式摘要请求体
// SentenceCount用指针区分"未提供"和"显式传零"：前者取默认值，后者钳制到下界
type AbstractiveRequest struct {
	Text          string `json:"text"`
	SentenceCount *int   `json:"sentenceCount"`
}
