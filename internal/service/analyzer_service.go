package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/synterhq/synter-api/internal/config"
	"github.com/synterhq/synter-api/internal/models"
	"github.com/synterhq/synter-api/internal/repository"
)

// AnalyzerService scrapes a website and detects its marketing stack:
// analytics tools, conversion pixels, tag managers, platform hints. Results
// are persisted as snapshots and reused within the configured freshness
// window so repeat reports skip the scrape.
type AnalyzerService struct {
	repos   *repository.Repositories
	timeout time.Duration
	maxAge  time.Duration
	logger  *slog.Logger
}

// NewAnalyzerService creates a new analyzer service.
func NewAnalyzerService(repos *repository.Repositories, cfg *config.Config, logger *slog.Logger) *AnalyzerService {
	return &AnalyzerService{
		repos:   repos,
		timeout: cfg.AnalyzerTimeout,
		maxAge:  cfg.SnapshotMaxAge,
		logger:  logger,
	}
}

// techSignature matches a known tool against page markup.
type techSignature struct {
	name     string
	category string
	pixel    bool
	patterns []string
}

// Signatures matched case-insensitively against the page HTML and script
// sources. Pixel entries also land in the snapshot's tracking pixel list.
var techSignatures = []techSignature{
	// Analytics
	{"Google Analytics", "Analytics", true, []string{"google-analytics.com", "gtag(", "ga('create'"}},
	{"Mixpanel", "Analytics", true, []string{"cdn.mxpnl.com", "mixpanel.init"}},
	{"Amplitude", "Analytics", true, []string{"cdn.amplitude.com", "amplitude.getinstance"}},
	{"Hotjar", "Analytics", true, []string{"static.hotjar.com", "hj.q"}},
	{"Adobe Analytics", "Analytics", true, []string{"omtrdc.net", "adobedc.net"}},

	// Advertising pixels
	{"Facebook Pixel", "Advertising", true, []string{"connect.facebook.net", "fbq("}},
	{"Google Ads", "Advertising", true, []string{"googleadservices.com", "googleads.g.doubleclick"}},
	{"LinkedIn Insight", "Advertising", true, []string{"snap.licdn.com", "_linkedin_partner_id"}},
	{"Twitter Pixel", "Advertising", true, []string{"static.ads-twitter.com", "twq("}},
	{"TikTok Pixel", "Advertising", true, []string{"analytics.tiktok.com", "ttq.load"}},

	// Tag managers
	{"Google Tag Manager", "Tag Managers", false, []string{"googletagmanager.com/gtm.js", "dataLayer"}},
	{"Tealium", "Tag Managers", false, []string{"tags.tiqcdn.com"}},
	{"Adobe Launch", "Tag Managers", false, []string{"assets.adobedtm.com"}},

	// Consent management
	{"OneTrust", "Consent Management", false, []string{"cdn.cookielaw.org", "onetrust"}},
	{"Cookiebot", "Consent Management", false, []string{"consent.cookiebot.com"}},
	{"TrustArc", "Consent Management", false, []string{"consent.trustarc.com"}},

	// E-commerce
	{"Shopify", "E-commerce", false, []string{"cdn.shopify.com", "shopify.theme"}},
	{"WooCommerce", "E-commerce", false, []string{"woocommerce"}},
	{"Magento", "E-commerce", false, []string{"mage/cookies", "magento"}},
	{"BigCommerce", "E-commerce", false, []string{"bigcommerce.com"}},

	// Web frameworks
	{"Next.js", "Web Frameworks", false, []string{"__next_data__", "/_next/static"}},
	{"React", "Web Frameworks", false, []string{"react-dom", "data-reactroot"}},
	{"Vue.js", "Web Frameworks", false, []string{"window.__nuxt__", "vue.runtime"}},
	{"WordPress", "Web Frameworks", false, []string{"wp-content", "wp-includes"}},
}

var industryPatterns = map[string][]string{
	"saas":       {"software as a service", "saas", "cloud platform", "api", "dashboard"},
	"ecommerce":  {"shop", "store", "buy", "cart", "checkout", "product"},
	"fintech":    {"financial", "banking", "payment", "money", "finance", "loan"},
	"healthcare": {"health", "medical", "patient", "doctor", "healthcare"},
	"education":  {"education", "learning", "course", "student", "teach"},
	"marketing":  {"marketing", "advertising", "campaign", "brand", "promotion"},
	"consulting": {"consulting", "advisory", "expert", "professional services"},
	"technology": {"technology", "tech", "innovation", "digital", "software"},
}

var businessModelPatterns = map[string][]string{
	"b2b":          {"enterprise", "business", "companies", "organizations", "teams"},
	"b2c":          {"consumers", "individuals", "personal", "family", "lifestyle"},
	"marketplace":  {"marketplace", "connect", "platform", "buyers", "sellers"},
	"subscription": {"subscription", "monthly", "plan", "pricing tiers"},
}

var valuePropKeywords = []string{
	"solution", "benefit", "advantage", "value", "help",
	"improve", "increase", "reduce", "save", "achieve",
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Snapshot returns a fresh analyzer snapshot for the website, scraping
// only when no stored snapshot is within the reuse window.
func (s *AnalyzerService) Snapshot(ctx context.Context, websiteID, targetURL string) (*models.WebsiteSnapshot, error) {
	existing, err := s.repos.Snapshot.GetLatestByWebsiteID(ctx, websiteID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up snapshot: %w", err)
	}
	if existing != nil && time.Since(existing.FetchedAt) < s.maxAge {
		s.logger.Debug("reusing website snapshot",
			"website_id", websiteID,
			"age", time.Since(existing.FetchedAt).Round(time.Second),
		)
		return existing, nil
	}

	snapshot, err := s.analyze(websiteID, targetURL)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Snapshot.Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	s.logger.Info("analyzed website",
		"website_id", websiteID,
		"url", targetURL,
		"technologies", len(snapshot.Technologies),
		"pixels", len(snapshot.TrackingPixels),
	)
	return snapshot, nil
}

func (s *AnalyzerService) analyze(websiteID, targetURL string) (*models.WebsiteSnapshot, error) {
	var (
		html       string
		title      string
		headings   []string
		listItems  []string
		scriptSrcs []string
	)

	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnResponse(func(r *colly.Response) {
		html = string(r.Body)
	})
	c.OnHTML("title", func(e *colly.HTMLElement) {
		if title == "" {
			title = strings.TrimSpace(e.Text)
		}
	})
	c.OnHTML("h1, h2, h3", func(e *colly.HTMLElement) {
		text := whitespaceRe.ReplaceAllString(strings.TrimSpace(e.Text), " ")
		if text != "" {
			headings = append(headings, text)
		}
	})
	c.OnHTML("li", func(e *colly.HTMLElement) {
		text := whitespaceRe.ReplaceAllString(strings.TrimSpace(e.Text), " ")
		if text != "" {
			listItems = append(listItems, text)
		}
	})
	c.OnHTML("script[src]", func(e *colly.HTMLElement) {
		scriptSrcs = append(scriptSrcs, e.Attr("src"))
	})

	if err := c.Visit(targetURL); err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}

	haystack := strings.ToLower(html + "\n" + strings.Join(scriptSrcs, "\n"))
	technologies, pixels := detectTechnologies(haystack)

	content := strings.ToLower(strings.Join(headings, " ") + " " + strings.Join(listItems, " "))

	return &models.WebsiteSnapshot{
		ID:                newID("snap_"),
		WebsiteID:         websiteID,
		URL:               targetURL,
		Title:             title,
		Technologies:      technologies,
		TrackingPixels:    pixels,
		Industry:          bestMatch(content, industryPatterns, "technology"),
		BusinessModel:     bestMatch(content, businessModelPatterns, "b2b"),
		KeyTopics:         keyTopics(headings),
		ValuePropositions: valuePropositions(headings, listItems),
		FetchedAt:         time.Now().UTC(),
	}, nil
}

func detectTechnologies(haystack string) (map[string][]string, []string) {
	technologies := make(map[string][]string)
	var pixels []string

	for _, sig := range techSignatures {
		for _, pattern := range sig.patterns {
			if strings.Contains(haystack, strings.ToLower(pattern)) {
				technologies[sig.category] = append(technologies[sig.category], sig.name)
				if sig.pixel {
					pixels = append(pixels, sig.name)
				}
				break
			}
		}
	}

	return technologies, pixels
}

// bestMatch returns the pattern group with the most keyword hits.
func bestMatch(content string, patterns map[string][]string, fallback string) string {
	best, bestScore := fallback, 0
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		score := 0
		for _, keyword := range patterns[name] {
			if strings.Contains(content, keyword) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	return best
}

// keyTopics extracts short heading phrases as topics, most frequent words
// first, capped at ten.
func keyTopics(headings []string) []string {
	seen := make(map[string]bool)
	var topics []string
	for _, h := range headings {
		topic := strings.ToLower(strings.TrimSpace(h))
		if len(topic) <= 3 || len(strings.Fields(topic)) > 6 {
			continue
		}
		if seen[topic] {
			continue
		}
		seen[topic] = true
		topics = append(topics, topic)
		if len(topics) == 10 {
			break
		}
	}
	return topics
}

// valuePropositions picks headings carrying benefit language plus a few
// substantial list items, capped at five.
func valuePropositions(headings, listItems []string) []string {
	var props []string

	for _, h := range headings {
		if len(h) <= 10 || len(h) >= 100 {
			continue
		}
		lower := strings.ToLower(h)
		for _, keyword := range valuePropKeywords {
			if strings.Contains(lower, keyword) {
				props = append(props, h)
				break
			}
		}
	}

	for _, item := range listItems {
		if len(item) > 20 && len(item) < 150 {
			props = append(props, item)
		}
		if len(props) >= 5 {
			break
		}
	}

	if len(props) > 5 {
		props = props[:5]
	}
	return props
}
