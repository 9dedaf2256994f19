// internal/services/analysis_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/Corphon/DocSummarizer/internal/llm"
	"github.com/Corphon/DocSummarizer/internal/models"
	"github.com/Corphon/DocSummarizer/internal/nlp"
	"github.com/Corphon/DocSummarizer/internal/utils"
)

const (
	// maxSampleChars 送入分析能力的文本采样上限
	maxSampleChars = 15000
	// previewChars 响应中textPreview的长度
	previewChars = 600
	// fallbackSummaryChars 本地分句也失败时的最后退路
	fallbackSummaryChars = 400

	// 抽取式摘要的句子数边界（与原有行为一致）
	extractiveMinSentences     = 1
	extractiveMaxSentences     = 10
	extractiveDefaultSentences = 5

	// 生成式摘要的句子数边界
	abstractiveMinSentences     = 3
	abstractiveMaxSentences     = 20
	abstractiveDefaultSentences = 6

	// abstractivePromptTokenBudget 生成式提示词的token预算
	abstractivePromptTokenBudget = 8000
)

// AnalysisService 文本分析编排器
// 语言检测+关键短语、摘要生成两个子操作相互独立并发执行，
// 任何一方失败都只降级自身，绝不取消或污染另一方；
// 所有字段在最终结果中始终存在，缺失以null/空数组表示
type AnalysisService struct {
	nlpProvider nlp.Provider // 可为nil：语言/关键短语/抽取式摘要不可用
	llmProvider llm.Provider // 可为nil：生成式摘要不可用
}

// NewAnalysisService 创建分析服务
func NewAnalysisService(nlpProvider nlp.Provider, llmProvider llm.Provider) *AnalysisService {
	return &AnalysisService{
		nlpProvider: nlpProvider,
		llmProvider: llmProvider,
	}
}

// SentenceCountUnset 表示调用方未提供句子数，使用模式默认值
// 显式传入的零或越界值则钳制到边界：未提供和显式零是两种不同的输入
const SentenceCountUnset = -1

// ClampSentenceCount 把句子数钳制到模式对应的合法区间
// 未提供时取模式默认；显式的零和越界值静默钳制而不是拒绝
func ClampSentenceCount(n int, mode models.SummaryMode) int {
	min, max, def := extractiveMinSentences, extractiveMaxSentences, extractiveDefaultSentences
	if mode == models.SummaryModeAbstractive {
		min, max, def = abstractiveMinSentences, abstractiveMaxSentences, abstractiveDefaultSentences
	}

	if n == SentenceCountUnset {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// Analyze 对文本执行完整分析并组装统一结果
func (s *AnalysisService) Analyze(ctx context.Context, text string, sentenceCount int, mode models.SummaryMode) *models.AnalysisResult {
	sample := utils.SampleText(text, maxSampleChars)
	n := ClampSentenceCount(sentenceCount, mode)

	var (
		wg         sync.WaitGroup
		langResult *nlp.DetectedLanguage
		rawPhrases []string
		langErr    error
		summary    string
		summaryErr string
	)

	// 语言检测+关键短语作为一个逻辑单元；失败被隔离，不阻塞摘要
	wg.Add(1)
	go func() {
		defer wg.Done()
		langResult, rawPhrases, langErr = s.detectAndExtract(ctx, sample)
	}()

	// 摘要独立执行
	wg.Add(1)
	go func() {
		defer wg.Done()
		switch mode {
		case models.SummaryModeAbstractive:
			summary, summaryErr = s.abstractiveSummary(ctx, sample, sentenceCount, n)
		default:
			summary = s.extractiveSummary(ctx, sample, n)
		}
	}()

	wg.Wait()

	result := models.NewEmptyAnalysisResult()

	var errParts []string
	if langErr != nil {
		errParts = append(errParts, fmt.Sprintf("Language/KeyPhrases failed: %v", langErr))
	} else {
		if langResult != nil {
			name, iso := langResult.Name, langResult.Iso6391
			result.DetectedLanguage = &name
			result.DetectedLanguageIso = &iso
		}
		result.Keywords = CleanKeywords(rawPhrases)
	}

	if summaryErr != "" {
		errParts = append(errParts, summaryErr)
	}
	if summary != "" {
		result.Summary = &summary
	}

	if len(errParts) > 0 {
		joined := strings.Join(errParts, "; ")
		result.TextAnalyticsError = &joined
	}

	preview := utils.TruncateWithEllipsis(sample, previewChars)
	result.TextPreview = &preview

	return result
}

// detectAndExtract 语言检测和关键短语提取
func (s *AnalysisService) detectAndExtract(ctx context.Context, sample string) (*nlp.DetectedLanguage, []string, error) {
	if s.nlpProvider == nil {
		return nil, nil, fmt.Errorf("language provider not configured")
	}

	lang, err := s.nlpProvider.DetectLanguage(ctx, sample)
	if err != nil {
		return nil, nil, err
	}

	phrases, err := s.nlpProvider.ExtractKeyPhrases(ctx, sample)
	if err != nil {
		return nil, nil, err
	}

	return lang, phrases, nil
}

// extractiveSummary 抽取式摘要
// rank决定入选，offset决定输出顺序；能力调用整体失败时退回本地分句，
// 本地分句再无产出时退回采样的前400字符。本模式永远能给出摘要
func (s *AnalysisService) extractiveSummary(ctx context.Context, sample string, n int) string {
	if s.nlpProvider != nil {
		sentences, err := s.nlpProvider.ExtractiveSummarize(ctx, sample, n)
		if err == nil && len(sentences) > 0 {
			return composeExtractive(sentences, n)
		}
		if err != nil {
			utils.GetLogger().Warn("抽取式摘要能力调用失败，使用本地回退", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	segments := splitSentences(sample)
	if len(segments) > n {
		segments = segments[:n]
	}
	if len(segments) > 0 {
		return strings.Join(segments, " ")
	}

	return utils.SampleText(sample, fallbackSummaryChars)
}

// composeExtractive 按rank降序选出前n句，再按原文偏移升序重排后拼接
// 两次排序都是稳定的：rank并列时保持文档序
func composeExtractive(sentences []nlp.RankedSentence, n int) string {
	selected := make([]nlp.RankedSentence, len(sentences))
	copy(selected, sentences)

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].RankScore > selected[j].RankScore
	})
	if len(selected) > n {
		selected = selected[:n]
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Offset < selected[j].Offset
	})

	parts := make([]string, 0, len(selected))
	for _, s := range selected {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// abstractiveSummary 生成式摘要，没有本地回退：失败以错误说明的形式上报
func (s *AnalysisService) abstractiveSummary(ctx context.Context, sample string, requested, n int) (string, string) {
	if s.llmProvider == nil {
		return "", "Abstractive summarization failed: no completion provider configured"
	}

	prompt := buildAbstractivePrompt(sample, requested, n)

	resp, err := s.llmProvider.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: "You are a precise summarization assistant. Respond with the summary only.",
		MaxTokens:    1024,
	})
	if err != nil {
		return "", fmt.Sprintf("Abstractive summarization failed: %v", err)
	}

	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		return "", "Abstractive summarization failed: provider returned empty text"
	}
	return summary, ""
}

// buildAbstractivePrompt 构建生成提示词并执行token预算
// tokenizer加载失败时降级为已有的字符级采样上限
func buildAbstractivePrompt(sample string, requested, n int) string {
	instruction := fmt.Sprintf("Summarize the following text in exactly %d sentences.", n)
	if requested == SentenceCountUnset {
		instruction = "Summarize the following text clearly and concisely."
	}

	if tok, err := llm.SharedTokenizer(); err == nil {
		prompt := instruction + "\n\n" + sample
		if tok.CountTokens(prompt) > abstractivePromptTokenBudget {
			budget := abstractivePromptTokenBudget - tok.CountTokens(instruction+"\n\n")
			if budget > 0 {
				sample = tok.TruncateToTokens(sample, budget)
			}
		}
	}

	return instruction + "\n\n" + sample
}

// splitSentences 本地分句：在句末标点后跟空白处切分
// 连续的句末标点归属前一句，段尾无空白也视为边界
func splitSentences(s string) []string {
	runes := []rune(strings.TrimSpace(s))
	var segments []string

	start := 0
	for i := 0; i < len(runes); i++ {
		if !isSentenceTerminal(runes[i]) {
			continue
		}
		// 吞掉连续的句末标点
		j := i
		for j+1 < len(runes) && isSentenceTerminal(runes[j+1]) {
			j++
		}
		// 只有后面是空白或文本结尾才算句子边界
		if j+1 < len(runes) && !unicode.IsSpace(runes[j+1]) {
			i = j
			continue
		}

		if seg := strings.TrimSpace(string(runes[start : j+1])); seg != "" {
			segments = append(segments, seg)
		}

		k := j + 1
		for k < len(runes) && unicode.IsSpace(runes[k]) {
			k++
		}
		start = k
		i = k - 1
	}

	if start < len(runes) {
		if seg := strings.TrimSpace(string(runes[start:])); seg != "" {
			segments = append(segments, seg)
		}
	}

	return segments
}

func isSentenceTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
