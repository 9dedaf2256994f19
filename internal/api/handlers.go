// internal/api/handlers.go
package api

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Corphon/DocSummarizer/internal/config"
	apperrors "github.com/Corphon/DocSummarizer/internal/errors"
	"github.com/Corphon/DocSummarizer/internal/models"
	"github.com/Corphon/DocSummarizer/internal/services"
	"github.com/Corphon/DocSummarizer/internal/utils"
	"github.com/gin-gonic/gin"
)

// maxUploadBytes 上传文件大小上限
const maxUploadBytes = 32 << 20 // 32 MB

// Handler 处理API请求
type Handler struct {
	AnalysisService *services.AnalysisService
	DocumentService *services.DocumentService
	ProgressService *services.ProgressService
	Config          *config.Config
	Response        *ResponseHelper
}

// NewHandler 创建API处理器
func NewHandler(
	analysisService *services.AnalysisService,
	documentService *services.DocumentService,
	progressService *services.ProgressService,
	cfg *config.Config,
) *Handler {
	return &Handler{
		AnalysisService: analysisService,
		DocumentService: documentService,
		ProgressService: progressService,
		Config:          cfg,
		Response:        NewResponseHelper(),
	}
}

// HealthCheck 服务健康检查，报告各外部能力是否已配置
func (h *Handler) HealthCheck(c *gin.Context) {
	h.Response.Ok(c, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
		"capabilities": gin.H{
			"textAnalytics":        h.Config.LanguageEndpoint != "",
			"documentIntelligence": h.Config.DocIntelEndpoint != "",
			"abstractive":          h.Config.LLMProvider != "",
		},
	})
}

// SummarizeText 对请求体中的纯文本做语言检测、关键词提取和抽取式摘要
// POST /summarize/text?sentences=<int>
func (h *Handler) SummarizeText(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes))
	if err != nil {
		h.Response.BadRequest(c, "Failed to read request body")
		return
	}

	text := utils.NormalizeText(string(body))
	if text == "" {
		h.Response.FromError(c, apperrors.NewValidationError("Body must contain non-empty text.", nil))
		return
	}

	sentences := queryInt(c, "sentences")
	result := h.AnalysisService.Analyze(c.Request.Context(), text, sentences, models.SummaryModeExtractive)

	if result.TextAnalyticsError != nil {
		RecordCapabilityFailure("text_analytics")
	}

	h.Response.Ok(c, result)
}

// SummarizeDocument 上传文档并对提取出的文本做分析
// POST /summarize/document?sentences=<int>[&pages=<range>][&timeoutSeconds=<int>][&taskId=<id>]
// 提取失败不报5xx：HTTP仍为200，响应中带错误说明字段
func (h *Handler) SummarizeDocument(c *gin.Context) {
	start := time.Now()

	file, header, err := c.Request.FormFile("document")
	if err != nil {
		// 部署变体使用 "file" 作为字段名
		file, header, err = c.Request.FormFile("file")
	}
	if err != nil || header == nil || header.Size == 0 {
		h.Response.FromError(c, apperrors.NewValidationError("No file uploaded for 'document'.", nil))
		return
	}
	defer file.Close()

	if err := h.DocumentService.ValidateExtension(header.Filename); err != nil {
		h.Response.FromError(c, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil || len(data) == 0 {
		h.Response.FromError(c, apperrors.NewValidationError("No file uploaded for 'document'.", nil))
		return
	}

	// 可选进度跟踪：调用方先约定taskId，再用 /ws/tasks/:taskID 订阅进度
	var tracker *services.ProgressTracker
	if taskID := c.Query("taskId"); taskID != "" {
		tracker = h.ProgressService.CreateTracker(taskID)
	}

	opts := services.UploadOptions{
		Pages:   c.Query("pages"),
		Timeout: h.Config.ClampAnalyzeTimeout(queryInt(c, "timeoutSeconds")),
		Tracker: tracker,
	}

	diStart := time.Now()
	text, diError := h.DocumentService.AnalyzeUpload(c.Request.Context(), data, header.Filename, opts)
	diMs := time.Since(diStart).Milliseconds()

	if text == "" {
		RecordCapabilityFailure("document_intelligence")
		if tracker != nil {
			tracker.Fail(diError)
		}
		h.Response.Ok(c, models.NewDocumentFailureReport(header.Filename, header.Size, diMs, diError))
		return
	}

	if tracker != nil {
		tracker.UpdateProgress(80, "正在分析文本...")
	}

	sentences := queryInt(c, "sentences")
	analysis := h.AnalysisService.Analyze(c.Request.Context(), text, sentences, models.SummaryModeExtractive)
	if analysis.TextAnalyticsError != nil {
		RecordCapabilityFailure("text_analytics")
	}

	if tracker != nil {
		tracker.Complete("分析完成")
	}

	h.Response.Ok(c, &models.DocumentReport{
		FileName: header.Filename,
		Length:   header.Size,
		DiMs:     diMs,
		TotalMs:  time.Since(start).Milliseconds(),
		Analysis: analysis,
	})
}

// SummarizeAbstractive 生成式摘要：请求体为JSON {text, sentenceCount} 或纯文本
// POST /summarize/abstractive?sentences=<int>
func (h *Handler) SummarizeAbstractive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes))
	if err != nil {
		h.Response.BadRequest(c, "Failed to read request body")
		return
	}

	text, sentences := parseAbstractiveBody(body)
	if sentences == services.SentenceCountUnset {
		sentences = queryInt(c, "sentences")
	}

	text = utils.NormalizeText(text)
	if text == "" {
		h.Response.FromError(c, apperrors.NewValidationError("Body must contain non-empty text.", nil))
		return
	}

	result := h.AnalysisService.Analyze(c.Request.Context(), text, sentences, models.SummaryModeAbstractive)

	if result.TextAnalyticsError != nil {
		RecordCapabilityFailure("abstractive")
	}

	h.Response.Ok(c, result)
}

// parseAbstractiveBody 宽容解析请求体：优先按JSON对象解析，失败则当作纯文本
func parseAbstractiveBody(body []byte) (string, int) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var req models.AbstractiveRequest
		if err := json.Unmarshal(body, &req); err == nil {
			if req.SentenceCount != nil {
				return req.Text, *req.SentenceCount
			}
			return req.Text, services.SentenceCountUnset
		}
	}
	return trimmed, services.SentenceCountUnset
}

// queryInt 读取整数查询参数
// 缺失或非法时返回services.SentenceCountUnset，让下游区分"未提供"和"显式传零"
func queryInt(c *gin.Context, name string) int {
	raw := c.Query(name)
	if raw == "" {
		return services.SentenceCountUnset
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return services.SentenceCountUnset
	}
	return n
}
