package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// PlanLimits maps plan names to their requests per minute limit.
	// A value of 0 means unlimited (no rate limiting applied).
	PlanLimits map[string]int
	// IPRequestsPerMinute is a fallback rate limit by IP for requests
	// without workspace claims.
	IPRequestsPerMinute int
}

// DefaultRateLimitConfig returns the built-in per-plan limits.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		PlanLimits: map[string]int{
			"FREE":       30,
			"PRO":        120,
			"ENTERPRISE": 0,
		},
		IPRequestsPerMinute: 60,
	}
}

// RateLimitByWorkspace returns a middleware that rate limits by
// workspace id with per-plan limits. Should be applied AFTER the auth
// middleware. Falls back to IP-based limiting when unauthenticated.
func RateLimitByWorkspace(cfg RateLimitConfig) func(http.Handler) http.Handler {
	planLimiters := make(map[string]*httprate.RateLimiter)
	for plan, limit := range cfg.PlanLimits {
		if limit > 0 {
			planLimiters[plan] = httprate.NewRateLimiter(
				limit,
				time.Minute,
				httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
					if id := GetWorkspaceID(r.Context()); id != "" {
						return "workspace:" + id, nil
					}
					return httprate.KeyByIP(r)
				}),
			)
		}
	}

	fallbackLimiter := httprate.NewRateLimiter(
		cfg.IPRequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetWorkspaceClaims(r.Context())
			if claims == nil {
				fallbackLimiter.Handler(next).ServeHTTP(w, r)
				return
			}

			limit, known := cfg.PlanLimits[claims.Plan]
			if known && limit == 0 {
				// Unlimited plan
				next.ServeHTTP(w, r)
				return
			}

			limiter, ok := planLimiters[claims.Plan]
			if !ok {
				fallbackLimiter.Handler(next).ServeHTTP(w, r)
				return
			}
			limiter.Handler(next).ServeHTTP(w, r)
		})
	}
}
