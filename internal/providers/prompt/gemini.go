package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"proai/internal/domain"
)

const (
	geminiDefaultTimeout = 15 * time.Second
	geminiDefaultModel   = "gemini-2.5-flash"
	geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

const geminiSystemInstruction = `You are 'ProAI', an expert AI prompt engineer with over 15 years of experience. Your task is to take a user's simple request and transform it into a detailed, structured, and professional prompt suitable for the specified target AI platform.
- Analyze the user's use case, industry, style, and constraints.
- Incorporate platform-specific keywords and formatting (e.g., '--ar 16:9' for MidJourney).
- For image/video prompts, add details about lighting, composition, camera angles, lens, and artistic style.
- For text/code prompts, add instructions on structure, tone, length, and format.
- Your output must be ONLY the generated prompt itself, without any explanations, preambles, or conversational text. It should be ready to be copied and pasted directly into the target platform.`

// GeminiOptions configures the Gemini-backed generator.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiGenerator calls the Generative Language REST API. Failures are
// returned to the caller untouched so the metering layer can refund the
// attempt; there is no silent fallback.
type GeminiGenerator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"system_instruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64         `json:"temperature,omitempty"`
	CandidateCount   int             `json:"candidateCount,omitempty"`
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiKeywordsPayload struct {
	Keywords []string `json:"keywords"`
}

// NewGeminiGenerator validates options and returns the generator.
func NewGeminiGenerator(opts GeminiOptions) (*GeminiGenerator, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = geminiDefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = geminiDefaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiDefaultTimeout}
	}
	return &GeminiGenerator{apiKey: opts.APIKey, model: model, baseURL: baseURL, client: client}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, category domain.Category, req domain.PromptRequest) (string, error) {
	payload := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: geminiSystemInstruction}}},
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildGeneratePayload(category, req)}},
		}},
		GenerationConfig: &geminiGenerationConfig{Temperature: 0.7, CandidateCount: 1},
	}
	text, err := g.call(ctx, payload)
	if err != nil {
		return "", err
	}
	cleaned := strings.TrimSpace(trimCodeFence(text))
	if cleaned == "" {
		return "", errors.New("gemini: empty response")
	}
	return cleaned, nil
}

func (g *GeminiGenerator) Keywords(ctx context.Context, useCase string) ([]string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildKeywordsPayload(useCase)}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.3,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
			ResponseSchema:   json.RawMessage(`{"type":"OBJECT","properties":{"keywords":{"type":"ARRAY","items":{"type":"STRING"}}}}`),
		},
	}
	text, err := g.call(ctx, payload)
	if err != nil {
		return nil, err
	}
	parsed, err := parseModelPayload[geminiKeywordsPayload](text)
	if err != nil {
		return nil, fmt.Errorf("gemini: decode keywords: %w", err)
	}
	return normalizeKeywords(parsed.Keywords), nil
}

func (g *GeminiGenerator) call(ctx context.Context, payload geminiRequest) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), &buf)
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini: status %d", resp.StatusCode)
	}
	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	text := extractText(out)
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

func (g *GeminiGenerator) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
}

func extractText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

func buildGeneratePayload(category domain.Category, req domain.PromptRequest) string {
	sb := &strings.Builder{}
	sb.WriteString("Generate a professional prompt based on the following details:\n")
	fmt.Fprintf(sb, "- Category: %s\n", category.Name)
	fmt.Fprintf(sb, "- Use Case: %q\n", req.UseCase)
	fmt.Fprintf(sb, "- Industry / Context: %q\n", req.Industry)
	fmt.Fprintf(sb, "- Desired Output Style: %q\n", req.Style)
	fmt.Fprintf(sb, "- Target AI Platform: %q\n", req.Platform)
	fmt.Fprintf(sb, "- Additional Constraints: %q\n", coalesce(req.Constraints, "None"))
	return sb.String()
}

func buildKeywordsPayload(useCase string) string {
	return fmt.Sprintf(`Based on the following user request for an AI prompt, extract 5 to 7 relevant keywords or short, descriptive phrases that would enhance the final prompt. Focus on key subjects, styles, actions, or modifiers. Return a JSON object with a single key "keywords" which contains an array of strings.

User Request: %q`, useCase)
}

var _ Generator = (*GeminiGenerator)(nil)
