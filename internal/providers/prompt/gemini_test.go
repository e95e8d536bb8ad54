package prompt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"proai/internal/domain"
)

func geminiFixture(t *testing.T, text string, status int) (*GeminiGenerator, *http.Request) {
	t.Helper()
	var captured http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		body, _ := json.Marshal(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{{"text": text}}},
			}},
		})
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	gen, err := NewGeminiGenerator(GeminiOptions{APIKey: "test-key", BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewGeminiGenerator() error: %v", err)
	}
	return gen, &captured
}

func TestGeminiGenerate(t *testing.T) {
	gen, captured := geminiFixture(t, "```\nA detailed prompt.\n```", http.StatusOK)
	cat := domain.Category{ID: "text", Name: "Text Prompts", CreditCost: 10}
	out, err := gen.Generate(context.Background(), cat, domain.PromptRequest{UseCase: "cover letter", Platform: "Gemini"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if out != "A detailed prompt." {
		t.Fatalf("Generate() = %q, want fences stripped", out)
	}
	if captured.Header.Get("x-goog-api-key") != "test-key" {
		t.Fatalf("api key header missing")
	}
	if !strings.Contains(captured.URL.Path, "models/gemini-2.5-flash:generateContent") {
		t.Fatalf("endpoint = %s", captured.URL.Path)
	}
}

func TestGeminiGenerateUpstreamError(t *testing.T) {
	gen, _ := geminiFixture(t, "", http.StatusTooManyRequests)
	_, err := gen.Generate(context.Background(), domain.Category{Name: "Text Prompts"}, domain.PromptRequest{})
	if err == nil {
		t.Fatalf("Generate() expected error on 429")
	}
}

func TestGeminiGenerateEmptyCandidate(t *testing.T) {
	gen, _ := geminiFixture(t, "   ", http.StatusOK)
	if _, err := gen.Generate(context.Background(), domain.Category{Name: "Text Prompts"}, domain.PromptRequest{}); err == nil {
		t.Fatalf("Generate() expected error on empty text")
	}
}

func TestGeminiKeywords(t *testing.T) {
	gen, _ := geminiFixture(t, "```json\n{\"keywords\":[\"neon\",\"Neon\",\" rain \",\"\"]}\n```", http.StatusOK)
	keywords, err := gen.Keywords(context.Background(), "a cyberpunk alley")
	if err != nil {
		t.Fatalf("Keywords() error: %v", err)
	}
	if len(keywords) != 2 || keywords[0] != "neon" || keywords[1] != "rain" {
		t.Fatalf("Keywords() = %v, want deduplicated trimmed list", keywords)
	}
}

func TestNewGeminiGeneratorRequiresKey(t *testing.T) {
	if _, err := NewGeminiGenerator(GeminiOptions{}); err == nil {
		t.Fatalf("NewGeminiGenerator() accepted empty key")
	}
}

func TestStaticGenerator(t *testing.T) {
	gen := NewStaticGenerator()
	cat := domain.Category{ID: "image", Name: "Image Prompts", CreditCost: 20}
	out, err := gen.Generate(context.Background(), cat, domain.PromptRequest{
		UseCase: "product shot", Industry: "E-commerce", Style: "Cinematic", Platform: "MidJourney", Constraints: "square crop",
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	for _, want := range []string{"product shot", "Cinematic", "MidJourney", "square crop"} {
		if !strings.Contains(out, want) {
			t.Fatalf("Generate() = %q, missing %q", out, want)
		}
	}
	keywords, err := gen.Keywords(context.Background(), "Moody product shot with neon rain, neon signs")
	if err != nil {
		t.Fatalf("Keywords() error: %v", err)
	}
	if len(keywords) == 0 {
		t.Fatalf("Keywords() returned nothing")
	}
	for i, kw := range keywords {
		for _, other := range keywords[i+1:] {
			if kw == other {
				t.Fatalf("Keywords() returned duplicate %q", kw)
			}
		}
	}
}
