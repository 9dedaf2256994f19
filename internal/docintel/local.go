// internal/docintel/local.go
package docintel

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Corphon/DocSummarizer/internal/models"
	"github.com/ledongthuc/pdf"
)

// LocalPDFAnalyzer 本地PDF文本提取回退
// 未配置Document Intelligence端点时使用，只支持PDF；
// 产出拍平内容形式的结果，让后续的提取链和分析流程保持不变
type LocalPDFAnalyzer struct {
	// MaxChars 提取字符上限，防止超大PDF占用过多内存
	MaxChars int
	// MaxPages 页数上限
	MaxPages int
}

// NewLocalPDFAnalyzer 创建本地PDF分析器
func NewLocalPDFAnalyzer() *LocalPDFAnalyzer {
	return &LocalPDFAnalyzer{
		MaxChars: 16000,
		MaxPages: 50,
	}
}

// AnalyzeDocument 从PDF字节流中提取纯文本
func (a *LocalPDFAnalyzer) AnalyzeDocument(ctx context.Context, data []byte, opts AnalyzeOptions) (result *models.DocumentAnalyzeResult, err error) {
	ext := strings.ToLower(filepath.Ext(opts.FileName))
	if ext != ".pdf" {
		return nil, fmt.Errorf("本地提取只支持PDF，收到: %q", ext)
	}

	// pdf库在个别畸形文件上会panic，统一转为错误
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf库处理 %s 时panic: %v", opts.FileName, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	totalPage := reader.NumPage()
	if totalPage > a.MaxPages {
		totalPage = a.MaxPages
	}

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		p := reader.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}

		s, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}

		content.WriteString(s)

		if content.Len() >= a.MaxChars {
			break
		}
	}

	text := content.String()
	if len(text) > a.MaxChars {
		text = text[:a.MaxChars]
	}

	return &models.DocumentAnalyzeResult{Content: text}, nil
}
