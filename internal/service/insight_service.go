package service

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

	"github.com/synterhq/synter-api/internal/models"
)

// InsightGenerator produces audience personas and channel suggestions for
// a tracking readiness report from a website snapshot.
type InsightGenerator interface {
	Generate(ctx context.Context, snap *models.WebsiteSnapshot) ([]models.Insight, error)
}

// personaTemplate is one industry-specific audience archetype.
type personaTemplate struct {
	name     string
	role     string
	focus    string
	channels []string
}

// Persona archetypes by industry. Industries without an entry fall back
// to the technology set.
var industryPersonas = map[string][]personaTemplate{
	"saas": {
		{"Technical Decision Maker", "CTO", "technical scalability, integration complexity, and security", []string{"Search", "LinkedIn", "Technical blogs"}},
		{"Business Stakeholder", "VP Operations", "operational costs, process efficiency, and ROI measurement", []string{"Search", "LinkedIn", "Industry publications"}},
		{"End User Champion", "Product Manager", "tool adoption, user experience, and feature fit", []string{"Search", "Product Hunt", "Reddit"}},
	},
	"ecommerce": {
		{"E-commerce Manager", "E-commerce Manager", "conversion optimization, cart abandonment, and acquisition costs", []string{"Search", "Facebook", "E-commerce forums"}},
		{"Digital Marketing Specialist", "Digital Marketing Manager", "attribution tracking, multi-channel management, and ROAS", []string{"Search", "LinkedIn", "Marketing blogs"}},
	},
	"fintech": {
		{"Financial Services Executive", "Chief Risk Officer", "regulatory compliance, risk management, and legacy integration", []string{"Search", "Industry publications", "LinkedIn"}},
		{"Finance Operations Lead", "Controller", "payment reliability, reconciliation effort, and reporting accuracy", []string{"Search", "LinkedIn"}},
	},
	"marketing": {
		{"Agency Principal", "Managing Director", "client reporting overhead, campaign performance, and retention", []string{"Search", "LinkedIn", "Marketing blogs"}},
		{"Performance Marketer", "Paid Media Manager", "ROAS optimization, creative testing, and budget pacing", []string{"Search", "Facebook", "Twitter"}},
	},
	"technology": {
		{"Innovation Leader", "VP Engineering", "modernization, team productivity, and vendor consolidation", []string{"Search", "LinkedIn", "Technical blogs"}},
		{"Operations Buyer", "Head of Operations", "process efficiency, cost control, and measurable outcomes", []string{"Search", "LinkedIn"}},
	},
}

// ========================================
// Template generator
// ========================================

// TemplateInsightGenerator builds insights from industry archetypes. It
// never fails, which makes it the unconditional fallback.
type TemplateInsightGenerator struct{}

// NewTemplateInsightGenerator creates a template-based insight generator.
func NewTemplateInsightGenerator() *TemplateInsightGenerator {
	return &TemplateInsightGenerator{}
}

func (g *TemplateInsightGenerator) Generate(_ context.Context, snap *models.WebsiteSnapshot) ([]models.Insight, error) {
	industry := "technology"
	model := "b2b"
	var topics []string
	if snap != nil {
		if snap.Industry != "" {
			industry = snap.Industry
		}
		if snap.BusinessModel != "" {
			model = snap.BusinessModel
		}
		topics = snap.KeyTopics
	}

	templates, ok := industryPersonas[industry]
	if !ok {
		templates = industryPersonas["technology"]
	}

	var insights []models.Insight
	channelSet := make(map[string]bool)

	for i, tpl := range templates {
		if i == 3 {
			break
		}
		desc := fmt.Sprintf("%s (%s audience) focused on %s.", tpl.role, model, tpl.focus)
		if len(topics) > 0 {
			desc += fmt.Sprintf(" Likely searching around: %s.", strings.Join(firstN(topics, 3), ", "))
		}
		insights = append(insights, models.Insight{
			Kind:        "persona",
			Title:       tpl.name,
			Description: desc,
			Source:      "template",
		})
	}

	for _, tpl := range templates {
		for _, ch := range tpl.channels {
			if channelSet[ch] {
				continue
			}
			channelSet[ch] = true
			insights = append(insights, models.Insight{
				Kind:        "channel",
				Title:       ch,
				Description: fmt.Sprintf("Recommended reach channel for %s %s audiences.", industry, model),
				Source:      "template",
			})
		}
	}

	return insights, nil
}

// ========================================
// LLM generator
// ========================================

// LLMInsightGenerator asks an OpenAI-compatible chat completion API for
// personas and channels, falling back to the template generator on any
// failure.
type LLMInsightGenerator struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	fallback   *TemplateInsightGenerator
	logger     *slog.Logger
}

// DefaultInsightBaseURL is the OpenAI API endpoint.
const DefaultInsightBaseURL = "https://api.openai.com/v1"

// NewLLMInsightGenerator creates an LLM-backed insight generator. An empty
// baseURL selects the OpenAI endpoint.
func NewLLMInsightGenerator(apiKey, baseURL, model string, timeout time.Duration, logger *slog.Logger) *LLMInsightGenerator {
	if baseURL == "" {
		baseURL = DefaultInsightBaseURL
	}
	return &LLMInsightGenerator{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		fallback:   NewTemplateInsightGenerator(),
		logger:     logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type llmInsight struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (g *LLMInsightGenerator) Generate(ctx context.Context, snap *models.WebsiteSnapshot) ([]models.Insight, error) {
	insights, err := g.generate(ctx, snap)
	if err != nil {
		g.logger.Warn("LLM insight generation failed, using templates", "error", err)
		return g.fallback.Generate(ctx, snap)
	}
	return insights, nil
}

func (g *LLMInsightGenerator) generate(ctx context.Context, snap *models.WebsiteSnapshot) ([]models.Insight, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a marketing strategist. Respond with only a JSON array of objects with keys kind (persona or channel), title, and description. Produce up to 3 personas and up to 3 channels."},
			{Role: "user", Content: g.prompt(snap)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	parsed, err := parseInsightJSON(chat.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	insights := make([]models.Insight, 0, len(parsed))
	for _, p := range parsed {
		if p.Kind != "persona" && p.Kind != "channel" {
			continue
		}
		if p.Title == "" {
			continue
		}
		insights = append(insights, models.Insight{
			Kind:        p.Kind,
			Title:       p.Title,
			Description: p.Description,
			Source:      "llm",
		})
	}
	if len(insights) == 0 {
		return nil, fmt.Errorf("completion contained no usable insights")
	}
	return insights, nil
}

func (g *LLMInsightGenerator) prompt(snap *models.WebsiteSnapshot) string {
	var b strings.Builder
	b.WriteString("Suggest audience personas and advertising channels for this website.\n")
	if snap != nil {
		fmt.Fprintf(&b, "Title: %s\nIndustry: %s\nBusiness model: %s\n", snap.Title, snap.Industry, snap.BusinessModel)
		if len(snap.KeyTopics) > 0 {
			fmt.Fprintf(&b, "Key topics: %s\n", strings.Join(firstN(snap.KeyTopics, 8), ", "))
		}
		if len(snap.ValuePropositions) > 0 {
			fmt.Fprintf(&b, "Value propositions: %s\n", strings.Join(snap.ValuePropositions, "; "))
		}
	}
	return b.String()
}

// parseInsightJSON tolerates completions wrapped in markdown fences or
// surrounding prose by extracting the outermost JSON array.
func parseInsightJSON(content string) ([]llmInsight, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in completion")
	}

	var parsed []llmInsight
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse insight JSON: %w", err)
	}
	return parsed, nil
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
