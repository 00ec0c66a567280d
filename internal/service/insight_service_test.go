package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/synterhq/synter-api/internal/models"
)

func saasSnapshot() *models.WebsiteSnapshot {
	return &models.WebsiteSnapshot{
		ID:            "snap_1",
		WebsiteID:     "web_1",
		Title:         "Acme CRM",
		Industry:      "saas",
		BusinessModel: "b2b",
		KeyTopics:     []string{"crm software", "sales automation"},
	}
}

// ========================================
// Template generator
// ========================================

func TestTemplateInsights_PersonasAndChannels(t *testing.T) {
	gen := NewTemplateInsightGenerator()

	insights, err := gen.Generate(context.Background(), saasSnapshot())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	personas, channels := 0, 0
	channelTitles := make(map[string]int)
	for _, in := range insights {
		switch in.Kind {
		case "persona":
			personas++
		case "channel":
			channels++
			channelTitles[in.Title]++
		default:
			t.Errorf("unexpected insight kind %q", in.Kind)
		}
		if in.Source != "template" {
			t.Errorf("expected template source, got %q", in.Source)
		}
	}

	if personas != 3 {
		t.Errorf("saas industry has 3 persona archetypes, got %d", personas)
	}
	if channels == 0 {
		t.Error("expected channel suggestions")
	}
	for title, count := range channelTitles {
		if count > 1 {
			t.Errorf("channel %q suggested %d times", title, count)
		}
	}
}

func TestTemplateInsights_UnknownIndustryFallsBack(t *testing.T) {
	gen := NewTemplateInsightGenerator()

	snap := saasSnapshot()
	snap.Industry = "agriculture"

	insights, err := gen.Generate(context.Background(), snap)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(insights) == 0 {
		t.Fatal("unknown industries should use the technology archetypes")
	}
	if insights[0].Title != "Innovation Leader" {
		t.Errorf("expected technology persona, got %q", insights[0].Title)
	}
}

func TestTemplateInsights_NilSnapshot(t *testing.T) {
	gen := NewTemplateInsightGenerator()

	insights, err := gen.Generate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(insights) == 0 {
		t.Error("nil snapshot should still produce default insights")
	}
}

// ========================================
// LLM generator
// ========================================

func llmServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if status != http.StatusOK {
			http.Error(w, "upstream error", status)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestLLMInsights_ParsesCompletion(t *testing.T) {
	content := `Here are your insights:
[
  {"kind": "persona", "title": "RevOps Lead", "description": "Owns pipeline tooling."},
  {"kind": "channel", "title": "LinkedIn", "description": "Reach B2B buyers."},
  {"kind": "other", "title": "ignored", "description": ""}
]`
	server := llmServer(t, content, http.StatusOK)
	defer server.Close()

	gen := NewLLMInsightGenerator("test-key", server.URL, "gpt-4o-mini", 5*time.Second, testLogger())

	insights, err := gen.Generate(context.Background(), saasSnapshot())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(insights) != 2 {
		t.Fatalf("expected 2 usable insights, got %d", len(insights))
	}
	if insights[0].Kind != "persona" || insights[0].Title != "RevOps Lead" {
		t.Errorf("unexpected first insight: %+v", insights[0])
	}
	if insights[0].Source != "llm" {
		t.Errorf("expected llm source, got %q", insights[0].Source)
	}
}

func TestLLMInsights_APIErrorFallsBackToTemplates(t *testing.T) {
	server := llmServer(t, "", http.StatusTooManyRequests)
	defer server.Close()

	gen := NewLLMInsightGenerator("test-key", server.URL, "gpt-4o-mini", 5*time.Second, testLogger())

	insights, err := gen.Generate(context.Background(), saasSnapshot())
	if err != nil {
		t.Fatalf("fallback must not surface the API error: %v", err)
	}
	if len(insights) == 0 {
		t.Fatal("expected template insights on fallback")
	}
	for _, in := range insights {
		if in.Source != "template" {
			t.Errorf("fallback insights should be template-sourced, got %q", in.Source)
		}
	}
}

func TestLLMInsights_GarbageCompletionFallsBack(t *testing.T) {
	server := llmServer(t, "I cannot help with that.", http.StatusOK)
	defer server.Close()

	gen := NewLLMInsightGenerator("test-key", server.URL, "gpt-4o-mini", 5*time.Second, testLogger())

	insights, err := gen.Generate(context.Background(), saasSnapshot())
	if err != nil {
		t.Fatalf("fallback must absorb parse failures: %v", err)
	}
	if len(insights) == 0 || insights[0].Source != "template" {
		t.Error("expected template fallback for unparseable completions")
	}
}
