// internal/docintel/client.go
package docintel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Corphon/DocSummarizer/internal/models"
)

// AnalyzeOptions 文档分析调用的可选参数
type AnalyzeOptions struct {
	// Pages 页范围限制（如"1-3"或"1,3,5"），空表示整个文档
	Pages string
	// FileName 原始文件名，用于日志和本地回退的格式判断
	FileName string
}

// Analyzer 文档OCR/版面分析能力端口
// 实现方对调用方无状态，可安全地跨请求并发使用
type Analyzer interface {
	AnalyzeDocument(ctx context.Context, data []byte, opts AnalyzeOptions) (*models.DocumentAnalyzeResult, error)
}

// Client Azure Document Intelligence REST客户端
// 提交分析任务后轮询operation-location直到完成；超时控制由调用方的ctx承担
type Client struct {
	endpoint     string
	apiKey       string
	modelID      string
	apiVersion   string
	client       *http.Client
	pollInterval time.Duration
}

// NewClient 创建Document Intelligence客户端
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint:     endpoint,
		apiKey:       apiKey,
		modelID:      "prebuilt-read",
		apiVersion:   "2024-11-30",
		client:       &http.Client{},
		pollInterval: 2 * time.Second,
	}
}

// AnalyzeDocument 提交文档并等待分析结果
func (c *Client) AnalyzeDocument(ctx context.Context, data []byte, opts AnalyzeOptions) (*models.DocumentAnalyzeResult, error) {
	if len(data) == 0 {
		return nil, errors.New("文档内容为空")
	}

	analyzeURL := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s",
		c.endpoint, c.modelID, c.apiVersion)
	if opts.Pages != "" {
		analyzeURL += "&pages=" + url.QueryEscape(opts.Pages)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", analyzeURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/octet-stream")
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusAccepted && httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("document intelligence api错误(%d): %s", httpResp.StatusCode, string(body))
	}

	operationURL := httpResp.Header.Get("Operation-Location")
	if operationURL == "" {
		return nil, errors.New("Document Intelligence未返回operation-location")
	}

	return c.pollAnalyzeResult(ctx, operationURL)
}

// pollAnalyzeResult 轮询分析任务直到succeeded/failed或ctx取消
func (c *Client) pollAnalyzeResult(ctx context.Context, operationURL string) (*models.DocumentAnalyzeResult, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, result, err := c.fetchAnalyzeStatus(ctx, operationURL)
		if err != nil {
			return nil, err
		}

		switch status {
		case "succeeded":
			return result, nil
		case "failed", "canceled":
			return nil, fmt.Errorf("文档分析任务状态: %s", status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) fetchAnalyzeStatus(ctx context.Context, operationURL string) (string, *models.DocumentAnalyzeResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", operationURL, nil)
	if err != nil {
		return "", nil, err
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return "", nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return "", nil, fmt.Errorf("document intelligence任务查询错误(%d): %s", httpResp.StatusCode, string(body))
	}

	var response struct {
		Status        string `json:"status"`
		AnalyzeResult struct {
			Content    string `json:"content"`
			Paragraphs []struct {
				Content string `json:"content"`
			} `json:"paragraphs"`
			Pages []struct {
				PageNumber int `json:"pageNumber"`
				Lines      []struct {
					Content string `json:"content"`
				} `json:"lines"`
			} `json:"pages"`
		} `json:"analyzeResult"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.NewDecoder(httpResp.Body).Decode(&response); err != nil {
		return "", nil, err
	}

	if response.Status == "failed" && response.Error.Message != "" {
		return "", nil, fmt.Errorf("文档分析失败: %s", response.Error.Message)
	}

	if response.Status != "succeeded" {
		return response.Status, nil, nil
	}

	result := &models.DocumentAnalyzeResult{
		Content: response.AnalyzeResult.Content,
	}
	for _, p := range response.AnalyzeResult.Paragraphs {
		result.Paragraphs = append(result.Paragraphs, models.DocumentParagraph{Content: p.Content})
	}
	for _, page := range response.AnalyzeResult.Pages {
		docPage := models.DocumentPage{PageNumber: page.PageNumber}
		for _, line := range page.Lines {
			docPage.Lines = append(docPage.Lines, models.DocumentLine{Content: line.Content})
		}
		result.Pages = append(result.Pages, docPage)
	}

	return response.Status, result, nil
}
