package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"insights/internal/core"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel    = "gemini-2.5-flash"
)

// GeminiConfig selects the models used for each collaborator.
type GeminiConfig struct {
	APIKey        string
	Endpoint      string
	IntentModel   string
	ResponseModel string
	Timeout       time.Duration
}

// GeminiClient implements IntentParser and AnswerGenerator over the Gemini
// generateContent REST API.
type GeminiClient struct {
	config GeminiConfig
	client *http.Client
}

var (
	_ IntentParser    = (*GeminiClient)(nil)
	_ AnswerGenerator = (*GeminiClient)(nil)
)

func NewGemini(cfg GeminiConfig) *GeminiClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.IntentModel == "" {
		cfg.IntentModel = DefaultModel
	}
	if cfg.ResponseModel == "" {
		cfg.ResponseModel = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GeminiClient{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// ParseIntent asks the intent model for a structured intent and validates it.
func (g *GeminiClient) ParseIntent(ctx context.Context, question string) (core.Intent, error) {
	text, err := g.generate(ctx, g.config.IntentModel, intentSystemPrompt, question)
	if err != nil {
		return core.Intent{}, fmt.Errorf("%w: %w", ErrIntentParsing, err)
	}
	intent, err := decodeIntent(text)
	if err != nil {
		return core.Intent{}, err
	}
	slog.DebugContext(ctx, "Intent parsed", "kind", intent.Kind, "metric", intent.Metric, "date_range", intent.DateRange)
	return intent, nil
}

// GenerateAnswer renders result as prose for question.
func (g *GeminiClient) GenerateAnswer(ctx context.Context, question string, intent core.Intent, result core.RoutedResult) (string, error) {
	intentJSON, err := json.Marshal(intent)
	if err != nil {
		return "", fmt.Errorf("%w: marshal intent: %w", ErrAnswerGeneration, err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal result: %w", ErrAnswerGeneration, err)
	}
	prompt := "User Question:\n" + question +
		"\n\nParsed Intent:\n" + string(intentJSON) +
		"\n\nData Retrieved (JSON):\n" + string(data) +
		"\n\nNow generate the answer."

	text, err := g.generate(ctx, g.config.ResponseModel, answerSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAnswerGeneration, err)
	}
	answer := strings.TrimSpace(text)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer", ErrAnswerGeneration)
	}
	return answer, nil
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// generate sends one single-turn request and returns the first candidate's text.
func (g *GeminiClient) generate(ctx context.Context, model, system, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.config.Endpoint, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.config.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("gemini error %d: %s", out.Error.Code, out.Error.Message)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
