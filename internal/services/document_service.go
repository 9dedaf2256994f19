// internal/services/document_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Corphon/DocSummarizer/internal/docintel"
	apperrors "github.com/Corphon/DocSummarizer/internal/errors"
	"github.com/Corphon/DocSummarizer/internal/models"
	"github.com/Corphon/DocSummarizer/internal/utils"
)

// MaxExtractChars 单次文档提取的字符预算
const MaxExtractChars = 16000

// allowedExtensions 允许上传的文件扩展名
var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".docx": {},
}

// UploadOptions 文档分析的请求级参数
type UploadOptions struct {
	// Pages 页范围限制，透传给分析能力
	Pages string
	// Timeout 本次调用的超时，零值使用服务默认值
	Timeout time.Duration
	// Tracker 可选的进度跟踪器
	Tracker *ProgressTracker
}

// DocumentService 负责上传文档的校验、外部分析调用和文本提取
type DocumentService struct {
	analyzer       docintel.Analyzer
	defaultTimeout time.Duration
}

// NewDocumentService 创建文档服务
func NewDocumentService(analyzer docintel.Analyzer, defaultTimeout time.Duration) *DocumentService {
	return &DocumentService{
		analyzer:       analyzer,
		defaultTimeout: defaultTimeout,
	}
}

// ValidateExtension 在任何能力调用之前检查文件扩展名
func (s *DocumentService) ValidateExtension(fileName string) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := allowedExtensions[ext]; !ok {
		return apperrors.NewUnsupportedMediaError(
			fmt.Sprintf("Unsupported file extension %q. Accepted: .pdf, .png, .jpg, .jpeg, .docx", ext))
	}
	return nil
}

// AnalyzeUpload 调用文档分析能力并提取纯文本
// 返回(提取文本, 错误说明)；两者可以同时非空。提供者的任何异常都被
// 捕获为文本化的错误原因，绝不向上层传播——空文本配非空错误说明
// 表示终止但不致命的结果，调用方照常返回200并附带诊断信息
func (s *DocumentService) AnalyzeUpload(ctx context.Context, data []byte, fileName string, opts UploadOptions) (string, string) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.defaultTimeout
	}

	if opts.Tracker != nil {
		opts.Tracker.UpdateProgress(20, "正在分析文档...")
	}

	analyzeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := s.analyzer.AnalyzeDocument(analyzeCtx, data, docintel.AnalyzeOptions{
		Pages:    opts.Pages,
		FileName: fileName,
	})
	if err != nil {
		appErr := classifyAnalyzeError(err, timeout, opts.Pages)
		utils.GetLogger().Warn("文档分析调用失败", map[string]interface{}{
			"file":    fileName,
			"pages":   opts.Pages,
			"code":    appErr.Code,
			"timeout": apperrors.IsTimeoutError(appErr),
			"error":   err.Error(),
		})
		return "", appErr.Message
	}

	if opts.Tracker != nil {
		opts.Tracker.UpdateProgress(60, "正在提取文本...")
	}

	text := ExtractText(result, MaxExtractChars)
	if text == "" {
		return "", ""
	}

	utils.GetLogger().Debug("文本提取完成", map[string]interface{}{
		"file":   fileName,
		"source": string(result.Kind()),
		"chars":  len([]rune(text)),
	})

	return utils.NormalizeText(text), ""
}

// classifyAnalyzeError 把提供者错误归类为带类型的应用错误
// 超时用专门措辞标明时长和页范围，方便调用方缩小范围重试；
// 其余归为上游调用错误，面向调用方的说明取自错误本身
func classifyAnalyzeError(err error, timeout time.Duration, pages string) *apperrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		pageRange := pages
		if pageRange == "" {
			pageRange = "all"
		}
		return apperrors.NewTimeoutError(
			fmt.Sprintf("Document analysis timed out after %s (pages: %s). Retry with a narrower page range or a larger timeoutSeconds.",
				timeout, pageRange), err)
	}
	return apperrors.NewUpstreamError(err.Error(), err)
}

// ExtractText 从文档分析结果中提取最佳可用的纯文本表示
// 回退链按严格顺序求值，在第一个非空白结果处停止：
//  1. 拍平的Content字段，截断到maxChars
//  2. 段落内容按原顺序拼接，每段后跟换行，在maxChars边界处段中截断
//  3. 页→行内容按页、行顺序拼接，同样的截断规则，预算耗尽时跨两层循环立即短路
//
// 三种表示绝不合并。没有任何表示产生非空白文本时返回空串。
// 不同文档类型下提供者填充的字段组合不一致，这个顺序是承重的
func ExtractText(result *models.DocumentAnalyzeResult, maxChars int) string {
	if result == nil || maxChars <= 0 {
		return ""
	}

	if strings.TrimSpace(result.Content) != "" {
		return utils.SampleText(result.Content, maxChars)
	}

	if len(result.Paragraphs) > 0 {
		var sb strings.Builder
		used := 0
		for _, p := range result.Paragraphs {
			if strings.TrimSpace(p.Content) == "" {
				continue
			}
			remaining := maxChars - used
			if remaining <= 0 {
				break
			}
			content := []rune(p.Content)
			if len(content) > remaining {
				sb.WriteString(string(content[:remaining]))
				break
			}
			sb.WriteString(p.Content)
			sb.WriteByte('\n')
			used += len(content) + 1
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}

	if len(result.Pages) > 0 {
		var sb strings.Builder
		used := 0
	pageLoop:
		for _, page := range result.Pages {
			for _, line := range page.Lines {
				if strings.TrimSpace(line.Content) == "" {
					continue
				}
				remaining := maxChars - used
				if remaining <= 0 {
					break pageLoop
				}
				content := []rune(line.Content)
				if len(content) > remaining {
					sb.WriteString(string(content[:remaining]))
					break pageLoop
				}
				sb.WriteString(line.Content)
				sb.WriteByte('\n')
				used += len(content) + 1
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}

	return ""
}
