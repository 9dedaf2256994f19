// internal/models/document.go
package models

// DocumentLine 页面内的一行文本
type DocumentLine struct {
	Content string `json:"content"`
}

// DocumentPage 文档分析结果中的一页
type DocumentPage struct {
	PageNumber int            `json:"pageNumber,omitempty"`
	Lines      []DocumentLine `json:"lines"`
}

// DocumentParagraph 文档分析结果中的一个段落
type DocumentParagraph struct {
	Content string `json:"content"`
}

// OutcomeKind 标记文档分析结果中可用的文本表示
type OutcomeKind string

const (
	OutcomeFlatContent  OutcomeKind = "flat_content"
	OutcomeParagraphs   OutcomeKind = "paragraphs"
	OutcomePagesOfLines OutcomeKind = "pages_of_lines"
	OutcomeEmpty        OutcomeKind = "empty"
)

// DocumentAnalyzeResult 外部OCR/版面分析能力返回的结果
// 不同的文档类型会填充不同的字段组合：可能只有拍平的Content、
// 只有段落列表、或只有页/行结构。消费方不能假设任何一个字段一定有值，
// 提取时按固定优先级只取其中一种表示，绝不合并
type DocumentAnalyzeResult struct {
	Content    string              `json:"content,omitempty"`
	Paragraphs []DocumentParagraph `json:"paragraphs,omitempty"`
	Pages      []DocumentPage      `json:"pages,omitempty"`
}

// Kind 报告提取链会选择的表示
// 优先级与提取逻辑一致：拍平内容 > 段落 > 页/行
func (r *DocumentAnalyzeResult) Kind() OutcomeKind {
	if r == nil {
		return OutcomeEmpty
	}
	if hasVisibleText(r.Content) {
		return OutcomeFlatContent
	}
	for _, p := range r.Paragraphs {
		if hasVisibleText(p.Content) {
			return OutcomeParagraphs
		}
	}
	for _, page := range r.Pages {
		for _, line := range page.Lines {
			if hasVisibleText(line.Content) {
				return OutcomePagesOfLines
			}
		}
	}
	return OutcomeEmpty
}

func hasVisibleText(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}

// DocumentReport 文档摘要端点的成功响应
type DocumentReport struct {
	FileName string          `json:"fileName"`
	Length   int64           `json:"length"`
	DiMs     int64           `json:"diMs"`
	TotalMs  int64           `json:"totalMs"`
	Analysis *AnalysisResult `json:"analysis"`
}

// DocumentFailureReport 提取失败时的响应
// 与原有匿名对象逐字段对应：分析字段全部为null，附带错误说明，HTTP仍为200
type DocumentFailureReport struct {
	FileName                  string   `json:"fileName"`
	Length                    int64    `json:"length"`
	DiMs                      int64    `json:"diMs"`
	DetectedLanguage          *string  `json:"detectedLanguage"`
	DetectedLanguageIso       *string  `json:"detectedLanguageIso"`
	Summary                   *string  `json:"summary"`
	Keywords                  []string `json:"keywords"`
	TextPreview               *string  `json:"textPreview"`
	DocumentIntelligenceError string   `json:"documentIntelligenceError"`
	TextAnalyticsError        string   `json:"textAnalyticsError"`
}

// NewDocumentFailureReport 构造提取失败响应
func NewDocumentFailureReport(fileName string, length, diMs int64, diError string) *DocumentFailureReport {
	if diError == "" {
		diError = "No text extracted."
	}
	return &DocumentFailureReport{
		FileName:                  fileName,
		Length:                    length,
		DiMs:                      diMs,
		Keywords:                  []string{},
		DocumentIntelligenceError: diError,
		TextAnalyticsError:        "Skipped because no text to analyze.",
	}
}
