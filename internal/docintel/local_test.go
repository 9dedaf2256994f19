package docintel

import (
	"context"
	"testing"
)

func TestLocalPDFAnalyzer_RejectsNonPDF(t *testing.T) {
	analyzer := NewLocalPDFAnalyzer()

	_, err := analyzer.AnalyzeDocument(context.Background(), []byte("data"), AnalyzeOptions{FileName: "scan.png"})
	if err == nil {
		t.Error("expected error for non-PDF input")
	}
}

func TestLocalPDFAnalyzer_MalformedPDFReturnsError(t *testing.T) {
	analyzer := NewLocalPDFAnalyzer()

	// 非法的PDF字节流：库要么返回错误要么panic，两者都必须收敛为error
	_, err := analyzer.AnalyzeDocument(context.Background(), []byte("not a pdf at all"), AnalyzeOptions{FileName: "broken.pdf"})
	if err == nil {
		t.Error("expected error for malformed PDF")
	}
}
