package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"insights/internal/core"
)

type capturedRequest struct {
	path   string
	apiKey string
	body   geminiRequest
}

// fakeGemini answers every generateContent call with reply and status.
func fakeGemini(t *testing.T, status int, reply string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var calls []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var req geminiRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		calls = append(calls, capturedRequest{path: r.URL.Path, apiKey: r.Header.Get("x-goog-api-key"), body: req})
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func candidate(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return string(b)
}

func newTestClient(url string) *GeminiClient {
	return NewGemini(GeminiConfig{
		APIKey:        "test-key",
		Endpoint:      url + "/",
		IntentModel:   "intent-model",
		ResponseModel: "answer-model",
	})
}

func TestParseIntent(t *testing.T) {
	srv, calls := fakeGemini(t, http.StatusOK, candidate("```json\n{\"kind\":\"customer\",\"customer_id\":109318,\"product_id\":null,\"metric\":\"summary\",\"top_n\":null,\"date_range\":\"2023-01-01..2023-12-31\"}\n```"))

	intent, err := newTestClient(srv.URL).ParseIntent(context.Background(), "What did customer 109318 spend in 2023?")
	if err != nil {
		t.Fatalf("ParseIntent() error = %v", err)
	}
	if intent.Kind != core.KindCustomer || intent.CustomerID == nil || *intent.CustomerID != 109318 {
		t.Errorf("intent = %+v", intent)
	}
	if intent.ProductID != nil || intent.TopN != nil {
		t.Errorf("null fields should stay unset: %+v", intent)
	}
	if intent.DateRange != "2023-01-01..2023-12-31" {
		t.Errorf("DateRange = %q", intent.DateRange)
	}

	if len(*calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(*calls))
	}
	got := (*calls)[0]
	if got.path != "/models/intent-model:generateContent" {
		t.Errorf("path = %q", got.path)
	}
	if got.apiKey != "test-key" {
		t.Errorf("api key header = %q", got.apiKey)
	}
	if got.body.SystemInstruction == nil || !strings.Contains(got.body.SystemInstruction.Parts[0].Text, `"kind"`) {
		t.Error("intent prompt should be sent as system instruction")
	}
	if got.body.Contents[0].Parts[0].Text != "What did customer 109318 spend in 2023?" {
		t.Errorf("user content = %q", got.body.Contents[0].Parts[0].Text)
	}
}

func TestParseIntentRejectsBadOutput(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
	}{
		{"not json", http.StatusOK, candidate("I think you mean customer 5")},
		{"unknown kind", http.StatusOK, candidate(`{"kind":"weather"}`)},
		{"bad date range", http.StatusOK, candidate(`{"kind":"business_metric","metric":"summary","date_range":"2023"}`)},
		{"non-numeric customer id", http.StatusOK, candidate(`{"kind":"customer","customer_id":"C12"}`)},
		{"empty", http.StatusOK, candidate("   ")},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"api error", http.StatusOK, `{"error":{"code":429,"message":"quota"}}`},
		{"http failure", http.StatusInternalServerError, `boom`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeGemini(t, tt.status, tt.reply)
			_, err := newTestClient(srv.URL).ParseIntent(context.Background(), "q")
			if !errors.Is(err, ErrIntentParsing) {
				t.Errorf("error = %v, want ErrIntentParsing", err)
			}
		})
	}
}

func TestParseIntentNormalizesKind(t *testing.T) {
	srv, _ := fakeGemini(t, http.StatusOK, candidate(`{"kind":" Product ","product_id":"A","metric":"stores_list"}`))
	intent, err := newTestClient(srv.URL).ParseIntent(context.Background(), "where is product A sold")
	if err != nil {
		t.Fatalf("ParseIntent() error = %v", err)
	}
	if intent.Kind != core.KindProduct || *intent.ProductID != "A" {
		t.Errorf("intent = %+v", intent)
	}
}

func TestParseIntentAcceptsStringIDAndAnyTopN(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		check func(core.Intent) bool
	}{
		{"string customer id", `{"kind":"customer","customer_id":"109318","metric":"summary"}`,
			func(in core.Intent) bool { return in.CustomerID != nil && *in.CustomerID == 109318 }},
		{"negative top_n", `{"kind":"business_metric","metric":"top_customers","top_n":-3}`,
			func(in core.Intent) bool { return in.TopN != nil && *in.TopN == -3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeGemini(t, http.StatusOK, candidate(tt.reply))
			intent, err := newTestClient(srv.URL).ParseIntent(context.Background(), "q")
			if err != nil {
				t.Fatalf("ParseIntent() error = %v", err)
			}
			if !tt.check(intent) {
				t.Errorf("intent = %+v", intent)
			}
		})
	}
}

func TestGenerateAnswer(t *testing.T) {
	srv, calls := fakeGemini(t, http.StatusOK, candidate("  Customer 1 spent 10.50 in total.\n"))

	res := core.NoData(core.CodeNoCustomerData, "no transactions")
	id := int64(1)
	answer, err := newTestClient(srv.URL).GenerateAnswer(context.Background(), "how much did customer 1 spend",
		core.Intent{Kind: core.KindCustomer, CustomerID: core.CustomerIDOf(id)}, res)
	if err != nil {
		t.Fatalf("GenerateAnswer() error = %v", err)
	}
	if answer != "Customer 1 spent 10.50 in total." {
		t.Errorf("answer = %q", answer)
	}

	got := (*calls)[0]
	if got.path != "/models/answer-model:generateContent" {
		t.Errorf("path = %q", got.path)
	}
	prompt := got.body.Contents[0].Parts[0].Text
	for _, want := range []string{"how much did customer 1 spend", `"status": "no_data"`, `"customer_id":1`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGenerateAnswerFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
	}{
		{"blank answer", http.StatusOK, candidate(" \n ")},
		{"unavailable", http.StatusServiceUnavailable, `overloaded`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeGemini(t, tt.status, tt.reply)
			_, err := newTestClient(srv.URL).GenerateAnswer(context.Background(), "q", core.Intent{}, core.RoutedResult{Status: core.StatusNoData})
			if !errors.Is(err, ErrAnswerGeneration) {
				t.Errorf("error = %v, want ErrAnswerGeneration", err)
			}
		})
	}
}

func TestGenerateRespectsContext(t *testing.T) {
	srv, _ := fakeGemini(t, http.StatusOK, candidate("late"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestClient(srv.URL).ParseIntent(ctx, "q"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		"```json\n{}\n```": "{}",
		"```\n{}\n```":     "{}",
		"  {}  ":           "{}",
	}
	for in, want := range tests {
		if got := stripFences(in); got != want {
			t.Errorf("stripFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("ab", 3); got != "ab" {
		t.Errorf("truncate = %q", got)
	}
}
