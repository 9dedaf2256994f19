package azurelang

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Corphon/DocSummarizer/internal/nlp"
)

func newTestProvider(t *testing.T, endpoint string) *Provider {
	t.Helper()

	p := &Provider{apiVersion: "2023-04-01", pollInterval: 5 * time.Millisecond}
	if err := p.Initialize(map[string]string{"endpoint": endpoint, "api_key": "test-key"}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return p
}

func TestInitialize_RequiresEndpointAndKey(t *testing.T) {
	p := &Provider{}
	if err := p.Initialize(map[string]string{"api_key": "k"}); err == nil {
		t.Error("expected error without endpoint")
	}
	if err := p.Initialize(map[string]string{"endpoint": "http://x"}); err == nil {
		t.Error("expected error without api key")
	}
}

func TestDetectLanguage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "test-key" {
			t.Error("missing subscription key header")
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req["kind"] != "LanguageDetection" {
			t.Errorf("expected LanguageDetection kind, got %v", req["kind"])
		}

		w.Write([]byte(`{
			"results": {
				"documents": [
					{"detectedLanguage": {"name": "French", "iso6391Name": "fr", "confidenceScore": 0.98}}
				]
			}
		}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	lang, err := p.DetectLanguage(context.Background(), "Bonjour le monde")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lang.Name != "French" || lang.Iso6391 != "fr" {
		t.Errorf("unexpected language: %+v", lang)
	}
}

func TestDetectLanguage_DocumentError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": {"errors": [{"error": {"message": "document too large"}}]}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	if _, err := p.DetectLanguage(context.Background(), "x"); err == nil {
		t.Error("expected error from document-level failure")
	}
}

func TestExtractKeyPhrases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		if req["kind"] != "KeyPhraseExtraction" {
			t.Errorf("expected KeyPhraseExtraction kind, got %v", req["kind"])
		}

		w.Write([]byte(`{"results": {"documents": [{"keyPhrases": ["neural networks", "training data"]}]}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	phrases, err := p.ExtractKeyPhrases(context.Background(), "some text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(phrases) != 2 || phrases[0] != "neural networks" {
		t.Errorf("unexpected phrases: %v", phrases)
	}
}

func TestExtractiveSummarize_PollsJobUntilSucceeded(t *testing.T) {
	var polls int

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/language/analyze-text/jobs", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		tasks := req["tasks"].([]interface{})
		task := tasks[0].(map[string]interface{})
		if task["kind"] != "ExtractiveSummarization" {
			t.Errorf("expected ExtractiveSummarization task, got %v", task["kind"])
		}
		params := task["parameters"].(map[string]interface{})
		if params["sentenceCount"].(float64) != 3 {
			t.Errorf("expected sentenceCount 3, got %v", params["sentenceCount"])
		}

		w.Header().Set("Operation-Location", server.URL+"/language/analyze-text/jobs/job-1")
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("/language/analyze-text/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls == 1 {
			w.Write([]byte(`{"status": "running"}`))
			return
		}
		w.Write([]byte(`{
			"status": "succeeded",
			"tasks": {
				"items": [{
					"results": {
						"documents": [{
							"sentences": [
								{"text": "First pick.", "rankScore": 0.9, "offset": 10},
								{"text": "Second pick.", "rankScore": 0.7, "offset": 50}
							]
						}]
					}
				}]
			}
		}`))
	})

	p := newTestProvider(t, server.URL)
	sentences, err := p.ExtractiveSummarize(context.Background(), "text", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []nlp.RankedSentence{
		{Text: "First pick.", RankScore: 0.9, Offset: 10},
		{Text: "Second pick.", RankScore: 0.7, Offset: 50},
	}
	if len(sentences) != len(expected) {
		t.Fatalf("expected %d sentences, got %d", len(expected), len(sentences))
	}
	for i := range expected {
		if sentences[i] != expected[i] {
			t.Errorf("sentence %d: expected %+v, got %+v", i, expected[i], sentences[i])
		}
	}
}

func TestExtractiveSummarize_FailedJob(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/language/analyze-text/jobs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Operation-Location", server.URL+"/language/analyze-text/jobs/job-1")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/language/analyze-text/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "failed"}`))
	})

	p := newTestProvider(t, server.URL)
	if _, err := p.ExtractiveSummarize(context.Background(), "text", 3); err == nil {
		t.Error("expected error for failed job")
	}
}

func TestProviderIsRegistered(t *testing.T) {
	found := false
	for _, name := range nlp.ListProviders() {
		if name == "azurelang" {
			found = true
		}
	}
	if !found {
		t.Error("expected azurelang to be registered")
	}
}
