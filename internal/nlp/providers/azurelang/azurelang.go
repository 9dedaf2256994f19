// internal/nlp/providers/azurelang/azurelang.go
package azurelang

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Corphon/DocSummarizer/internal/nlp"
)

func init() {
	nlp.Register("azurelang", func() nlp.Provider {
		return &Provider{
			apiVersion:   "2023-04-01",
			pollInterval: 2 * time.Second,
		}
	})
}

// Provider Azure AI Language服务提供者
// 语言检测和关键短语走同步的:analyze-text接口，
// 抽取式摘要走异步的analyze-text/jobs接口（提交后轮询operation-location）
type Provider struct {
	endpoint     string
	apiKey       string
	apiVersion   string
	client       *http.Client
	pollInterval time.Duration
}

func (p *Provider) Initialize(config map[string]string) error {
	endpoint, exists := config["endpoint"]
	if !exists || endpoint == "" {
		return errors.New("Azure Language端点未提供")
	}

	apiKey, exists := config["api_key"]
	if !exists || apiKey == "" {
		return errors.New("Azure Language密钥未提供")
	}

	p.endpoint = endpoint
	p.apiKey = apiKey
	p.client = &http.Client{}

	if version, exists := config["api_version"]; exists && version != "" {
		p.apiVersion = version
	}

	return nil
}

func (p *Provider) GetName() string {
	return "AzureLanguage"
}

// DetectLanguage 检测文本的主要语言
func (p *Provider) DetectLanguage(ctx context.Context, text string) (*nlp.DetectedLanguage, error) {
	requestBody := map[string]interface{}{
		"kind": "LanguageDetection",
		"analysisInput": map[string]interface{}{
			"documents": []map[string]interface{}{
				{"id": "1", "text": text},
			},
		},
	}

	var response struct {
		Results struct {
			Documents []struct {
				DetectedLanguage struct {
					Name            string  `json:"name"`
					Iso6391Name     string  `json:"iso6391Name"`
					ConfidenceScore float64 `json:"confidenceScore"`
				} `json:"detectedLanguage"`
			} `json:"documents"`
			Errors []struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			} `json:"errors"`
		} `json:"results"`
	}

	if err := p.analyzeText(ctx, requestBody, &response); err != nil {
		return nil, err
	}

	if len(response.Results.Documents) == 0 {
		if len(response.Results.Errors) > 0 {
			return nil, fmt.Errorf("语言检测失败: %s", response.Results.Errors[0].Error.Message)
		}
		return nil, errors.New("语言检测未返回结果")
	}

	detected := response.Results.Documents[0].DetectedLanguage
	return &nlp.DetectedLanguage{
		Name:    detected.Name,
		Iso6391: detected.Iso6391Name,
		Score:   detected.ConfidenceScore,
	}, nil
}

// ExtractKeyPhrases 提取关键短语（原始候选，由调用方负责清洗）
func (p *Provider) ExtractKeyPhrases(ctx context.Context, text string) ([]string, error) {
	requestBody := map[string]interface{}{
		"kind": "KeyPhraseExtraction",
		"analysisInput": map[string]interface{}{
			"documents": []map[string]interface{}{
				{"id": "1", "text": text},
			},
		},
	}

	var response struct {
		Results struct {
			Documents []struct {
				KeyPhrases []string `json:"keyPhrases"`
			} `json:"documents"`
			Errors []struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			} `json:"errors"`
		} `json:"results"`
	}

	if err := p.analyzeText(ctx, requestBody, &response); err != nil {
		return nil, err
	}

	if len(response.Results.Documents) == 0 {
		if len(response.Results.Errors) > 0 {
			return nil, fmt.Errorf("关键短语提取失败: %s", response.Results.Errors[0].Error.Message)
		}
		return nil, errors.New("关键短语提取未返回结果")
	}

	return response.Results.Documents[0].KeyPhrases, nil
}

// ExtractiveSummarize 提交抽取式摘要任务并轮询结果
func (p *Provider) ExtractiveSummarize(ctx context.Context, text string, maxSentences int) ([]nlp.RankedSentence, error) {
	requestBody := map[string]interface{}{
		"analysisInput": map[string]interface{}{
			"documents": []map[string]interface{}{
				{"id": "1", "text": text},
			},
		},
		"tasks": []map[string]interface{}{
			{
				"kind": "ExtractiveSummarization",
				"parameters": map[string]interface{}{
					"sentenceCount": maxSentences,
				},
			},
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/language/analyze-text/jobs?api-version=%s", p.endpoint, p.apiVersion)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", p.apiKey)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusAccepted && httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("azure language api错误(%d): %s", httpResp.StatusCode, string(body))
	}

	operationURL := httpResp.Header.Get("Operation-Location")
	if operationURL == "" {
		return nil, errors.New("Azure Language未返回operation-location")
	}

	return p.pollSummarizeJob(ctx, operationURL)
}

// pollSummarizeJob 轮询异步摘要任务直到完成或ctx取消
func (p *Provider) pollSummarizeJob(ctx context.Context, operationURL string) ([]nlp.RankedSentence, error) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		status, sentences, err := p.fetchJobStatus(ctx, operationURL)
		if err != nil {
			return nil, err
		}

		switch status {
		case "succeeded":
			return sentences, nil
		case "failed", "cancelled":
			return nil, fmt.Errorf("抽取式摘要任务状态: %s", status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Provider) fetchJobStatus(ctx context.Context, operationURL string) (string, []nlp.RankedSentence, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", operationURL, nil)
	if err != nil {
		return "", nil, err
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", p.apiKey)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return "", nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return "", nil, fmt.Errorf("azure language job查询错误(%d): %s", httpResp.StatusCode, string(body))
	}

	var response struct {
		Status string `json:"status"`
		Tasks  struct {
			Items []struct {
				Results struct {
					Documents []struct {
						Sentences []struct {
							Text      string  `json:"text"`
							RankScore float64 `json:"rankScore"`
							Offset    int     `json:"offset"`
						} `json:"sentences"`
					} `json:"documents"`
				} `json:"results"`
			} `json:"items"`
		} `json:"tasks"`
	}

	if err := json.NewDecoder(httpResp.Body).Decode(&response); err != nil {
		return "", nil, err
	}

	if response.Status != "succeeded" {
		return response.Status, nil, nil
	}

	var sentences []nlp.RankedSentence
	for _, item := range response.Tasks.Items {
		for _, doc := range item.Results.Documents {
			for _, s := range doc.Sentences {
				sentences = append(sentences, nlp.RankedSentence{
					Text:      s.Text,
					RankScore: s.RankScore,
					Offset:    s.Offset,
				})
			}
		}
		if len(sentences) > 0 {
			break
		}
	}

	return response.Status, sentences, nil
}

// analyzeText 调用同步的:analyze-text接口
func (p *Provider) analyzeText(ctx context.Context, requestBody map[string]interface{}, out interface{}) error {
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/language/:analyze-text?api-version=%s", p.endpoint, p.apiVersion)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", p.apiKey)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return fmt.Errorf("azure language api错误(%d): %s", httpResp.StatusCode, string(body))
	}

	return json.NewDecoder(httpResp.Body).Decode(out)
}
