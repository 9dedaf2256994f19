package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Corphon/DocSummarizer/internal/docintel"
	apperrors "github.com/Corphon/DocSummarizer/internal/errors"
	"github.com/Corphon/DocSummarizer/internal/models"
)

// fakeAnalyzer 可编程的文档分析替身
type fakeAnalyzer struct {
	result *models.DocumentAnalyzeResult
	err    error
	calls  int
}

func (f *fakeAnalyzer) AnalyzeDocument(ctx context.Context, data []byte, opts docintel.AnalyzeOptions) (*models.DocumentAnalyzeResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestValidateExtension(t *testing.T) {
	svc := NewDocumentService(&fakeAnalyzer{}, time.Second)

	for _, name := range []string{"a.pdf", "b.PNG", "c.jpg", "d.Jpeg", "e.docx"} {
		if err := svc.ValidateExtension(name); err != nil {
			t.Errorf("expected %q to be accepted, got %v", name, err)
		}
	}

	err := svc.ValidateExtension("report.exe")
	if err == nil {
		t.Fatal("expected error for .exe")
	}
	if !apperrors.IsUnsupportedMediaError(err) {
		t.Errorf("expected unsupported media error, got %v", err)
	}
	if !strings.Contains(err.Error(), `Unsupported file extension ".exe"`) {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestAnalyzeUpload_NormalizesExtractedText(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &models.DocumentAnalyzeResult{Content: "hello\n\n  world"}}
	svc := NewDocumentService(analyzer, time.Second)

	text, errMsg := svc.AnalyzeUpload(context.Background(), []byte("data"), "a.pdf", UploadOptions{})
	if errMsg != "" {
		t.Fatalf("unexpected error message: %q", errMsg)
	}
	if text != "hello world" {
		t.Errorf("expected normalized text, got %q", text)
	}
	if analyzer.calls != 1 {
		t.Errorf("expected 1 analyzer call, got %d", analyzer.calls)
	}
}

func TestAnalyzeUpload_TimeoutMessageNamesDurationAndPages(t *testing.T) {
	analyzer := &fakeAnalyzer{err: context.DeadlineExceeded}
	svc := NewDocumentService(analyzer, time.Second)

	_, errMsg := svc.AnalyzeUpload(context.Background(), []byte("data"), "a.pdf", UploadOptions{
		Pages:   "1-3",
		Timeout: 2 * time.Second,
	})

	if !strings.Contains(errMsg, "timed out after 2s") {
		t.Errorf("expected timeout duration in message, got %q", errMsg)
	}
	if !strings.Contains(errMsg, "(pages: 1-3)") {
		t.Errorf("expected page range in message, got %q", errMsg)
	}

	// 未指定页范围时标注all
	_, errMsg = svc.AnalyzeUpload(context.Background(), []byte("data"), "a.pdf", UploadOptions{
		Timeout: 2 * time.Second,
	})
	if !strings.Contains(errMsg, "(pages: all)") {
		t.Errorf("expected pages: all, got %q", errMsg)
	}
}

func TestClassifyAnalyzeError(t *testing.T) {
	deadline := fmt.Errorf("analyze: %w", context.DeadlineExceeded)
	appErr := classifyAnalyzeError(deadline, 2*time.Second, "1-3")

	if !apperrors.IsTimeoutError(appErr) {
		t.Errorf("expected deadline to classify as timeout, got type %q", appErr.Type)
	}
	if appErr.Code != "TIMEOUT" {
		t.Errorf("expected TIMEOUT code, got %q", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "timed out after 2s") || !strings.Contains(appErr.Message, "(pages: 1-3)") {
		t.Errorf("unexpected timeout message: %q", appErr.Message)
	}
	if !errors.Is(appErr, context.DeadlineExceeded) {
		t.Error("expected wrapped cause to survive classification")
	}

	upstream := errors.New("503 from analysis endpoint")
	appErr = classifyAnalyzeError(upstream, 2*time.Second, "")

	if apperrors.IsTimeoutError(appErr) {
		t.Error("expected non-deadline error to classify as upstream, not timeout")
	}
	if appErr.Code != "UPSTREAM_ERROR" {
		t.Errorf("expected UPSTREAM_ERROR code, got %q", appErr.Code)
	}
	if appErr.Message != "503 from analysis endpoint" {
		t.Errorf("expected caller-facing message from the cause, got %q", appErr.Message)
	}
	if !errors.Is(appErr, upstream) {
		t.Error("expected wrapped cause to survive classification")
	}
}

func TestAnalyzeUpload_ProviderErrorBecomesMessage(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("service unavailable")}
	svc := NewDocumentService(analyzer, time.Second)

	text, errMsg := svc.AnalyzeUpload(context.Background(), []byte("data"), "a.pdf", UploadOptions{})
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
	if errMsg != "service unavailable" {
		t.Errorf("expected provider error as message, got %q", errMsg)
	}
}

func TestAnalyzeUpload_EmptyExtractionIsNotAnError(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &models.DocumentAnalyzeResult{}}
	svc := NewDocumentService(analyzer, time.Second)

	text, errMsg := svc.AnalyzeUpload(context.Background(), []byte("data"), "a.pdf", UploadOptions{})
	if text != "" || errMsg != "" {
		t.Errorf("expected empty text and empty error, got %q / %q", text, errMsg)
	}
}

func TestExtractText_FlatContentWinsOverStructured(t *testing.T) {
	result := &models.DocumentAnalyzeResult{
		Content:    "flat content",
		Paragraphs: []models.DocumentParagraph{{Content: "paragraph"}},
		Pages: []models.DocumentPage{
			{PageNumber: 1, Lines: []models.DocumentLine{{Content: "line"}}},
		},
	}

	got := ExtractText(result, 100)
	if got != "flat content" {
		t.Errorf("expected flat content to win, got %q", got)
	}
}

func TestExtractText_ParagraphsBeforePages(t *testing.T) {
	result := &models.DocumentAnalyzeResult{
		Content:    "   ",
		Paragraphs: []models.DocumentParagraph{{Content: "first"}, {Content: "second"}},
		Pages: []models.DocumentPage{
			{PageNumber: 1, Lines: []models.DocumentLine{{Content: "page line"}}},
		},
	}

	got := ExtractText(result, 100)
	if got != "first\nsecond\n" {
		t.Errorf("expected paragraph text, got %q", got)
	}
}

func TestExtractText_PagesOfLines(t *testing.T) {
	result := &models.DocumentAnalyzeResult{
		Pages: []models.DocumentPage{
			{PageNumber: 1, Lines: []models.DocumentLine{{Content: "a"}, {Content: "b"}}},
			{PageNumber: 2, Lines: []models.DocumentLine{{Content: "c"}}},
		},
	}

	got := ExtractText(result, 100)
	if got != "a\nb\nc\n" {
		t.Errorf("expected joined page lines, got %q", got)
	}
}

func TestExtractText_TruncatesMidParagraphAtBudget(t *testing.T) {
	result := &models.DocumentAnalyzeResult{
		Paragraphs: []models.DocumentParagraph{
			{Content: "abcde"},
			{Content: "fghij"},
		},
	}

	// 预算8：第一段5字符+换行占6，第二段只剩2字符
	got := ExtractText(result, 8)
	if got != "abcde\nfg" {
		t.Errorf("expected truncation at budget, got %q", got)
	}
}

func TestExtractText_BudgetStopsAcrossPages(t *testing.T) {
	result := &models.DocumentAnalyzeResult{
		Pages: []models.DocumentPage{
			{PageNumber: 1, Lines: []models.DocumentLine{{Content: "abcd"}}},
			{PageNumber: 2, Lines: []models.DocumentLine{{Content: "efgh"}}},
		},
	}

	got := ExtractText(result, 7)
	if got != "abcd\nef" {
		t.Errorf("expected cross-page truncation, got %q", got)
	}
}

func TestExtractText_Empty(t *testing.T) {
	if got := ExtractText(nil, 100); got != "" {
		t.Errorf("expected empty for nil result, got %q", got)
	}
	if got := ExtractText(&models.DocumentAnalyzeResult{Content: "   \n"}, 100); got != "" {
		t.Errorf("expected empty for whitespace-only content, got %q", got)
	}
	if got := ExtractText(&models.DocumentAnalyzeResult{Content: "x"}, 0); got != "" {
		t.Errorf("expected empty for zero budget, got %q", got)
	}
}
