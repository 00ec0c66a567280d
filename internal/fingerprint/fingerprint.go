// Package fingerprint computes deterministic digests over normalized
// report inputs. Digests are cache keys for report deduplication, not a
// security boundary; SHA-256 keeps collisions negligible.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/synterhq/synter-api/internal/models"
)

// TrackingReadiness returns the digest for a tracking readiness request.
// The normalized input is the canonical URL only.
func TrackingReadiness(rawURL string) (string, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}
	return digest(models.ReportTypeTrackingReadiness, normalized), nil
}

// SpendBaseline returns the digest for a spend baseline request over the
// given ad accounts and lookback window. Account order never affects the
// result.
func SpendBaseline(accountIDs []string, days int) string {
	ids := make([]string, len(accountIDs))
	copy(ids, accountIDs)
	sort.Strings(ids)
	return digest(models.ReportTypeSpendBaseline, fmt.Sprintf("%s:%d", strings.Join(ids, ","), days))
}

// CompetitorSnapshot returns the digest for a competitor snapshot of the
// given domain. Scheme, path, and a leading www are stripped first.
func CompetitorSnapshot(domain string) (string, error) {
	normalized, err := NormalizeDomain(domain)
	if err != nil {
		return "", err
	}
	return digest(models.ReportTypeCompetitorSnapshot, normalized), nil
}

// NormalizeURL canonicalizes a URL: lowercases scheme and host, defaults
// the scheme to https, and strips fragments and trailing slashes.
// Semantically identical URLs always normalize identically.
func NormalizeURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String(), nil
}

// NormalizeDomain reduces a URL or hostname to its bare domain: scheme,
// path, port, and a leading www are removed, and the result is lowercased.
func NormalizeDomain(raw string) (string, error) {
	normalized, err := NormalizeURL(raw)
	if err != nil {
		return "", err
	}

	u, _ := url.Parse(normalized)
	host := u.Hostname()
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", fmt.Errorf("no domain in %q", raw)
	}
	return host, nil
}

// WebsiteID derives a stable identifier for a website from its URL. The
// id only depends on the normalized URL, so every caller deriving an id
// for the same site gets the same value.
func WebsiteID(rawURL string) (string, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(normalized))
	return "web_" + hex.EncodeToString(sum[:8]), nil
}

func digest(reportType models.ReportType, normalizedInput string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", reportType, normalizedInput)))
	return hex.EncodeToString(sum[:])
}
