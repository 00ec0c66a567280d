package config

// Plan names. Workspaces always carry one of these.
const (
	PlanFree       = "FREE"
	PlanPro        = "PRO"
	PlanEnterprise = "ENTERPRISE"
)

// Report type names and their credit costs.
const (
	ReportTrackingReadiness  = "TRACKING_READINESS"
	ReportSpendBaseline      = "SPEND_BASELINE"
	ReportCompetitorSnapshot = "COMPETITOR_SNAPSHOT"
)

// CreditResetPeriodDays is how far creditsResetDate advances on each
// monthly reset.
const CreditResetPeriodDays = 30

// PlanDefinition describes the entitlements a subscription plan grants.
type PlanDefinition struct {
	Name            string
	PriceUSDCents   int64
	MonthlyCredits  int
	MonthlyReports  int // Hard report cap, 0 = unlimited
	CanPublish      bool
	StripePriceID   string
	StripeProductID string
}

// CreditPack describes a one-off purchasable credit bundle.
type CreditPack struct {
	ID            string
	Credits       int
	PriceUSDCents int64
	StripePriceID string
}

// BillingConfig holds the plan and credit-pack catalog plus per-report
// credit costs.
type BillingConfig struct {
	Plans       map[string]PlanDefinition
	Packs       map[string]CreditPack
	ReportCosts map[string]int
}

// DefaultBillingConfig returns the static catalog. Stripe price ids come
// from the environment so test and live mode can differ.
func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		Plans: map[string]PlanDefinition{
			PlanFree: {
				Name:           PlanFree,
				PriceUSDCents:  0,
				MonthlyCredits: 3,
				MonthlyReports: 3,
				CanPublish:     false,
			},
			PlanPro: {
				Name:           PlanPro,
				PriceUSDCents:  4900,
				MonthlyCredits: 20,
				CanPublish:     false,
				StripePriceID:  getEnv("STRIPE_PRICE_PRO", ""),
			},
			PlanEnterprise: {
				Name:           PlanEnterprise,
				PriceUSDCents:  14900,
				MonthlyCredits: 100,
				CanPublish:     true,
				StripePriceID:  getEnv("STRIPE_PRICE_ENTERPRISE", ""),
			},
		},
		Packs: map[string]CreditPack{
			"pack_10": {ID: "pack_10", Credits: 10, PriceUSDCents: 1900, StripePriceID: getEnv("STRIPE_PRICE_PACK_10", "")},
			"pack_25": {ID: "pack_25", Credits: 25, PriceUSDCents: 3900, StripePriceID: getEnv("STRIPE_PRICE_PACK_25", "")},
			"pack_50": {ID: "pack_50", Credits: 50, PriceUSDCents: 6900, StripePriceID: getEnv("STRIPE_PRICE_PACK_50", "")},
		},
		ReportCosts: map[string]int{
			ReportTrackingReadiness:  1,
			ReportSpendBaseline:      2,
			ReportCompetitorSnapshot: 3,
		},
	}
}

// GetPlan returns the definition for a plan name, falling back to FREE.
func (c *BillingConfig) GetPlan(name string) PlanDefinition {
	if plan, ok := c.Plans[name]; ok {
		return plan
	}
	return c.Plans[PlanFree]
}

// GetPack returns the credit pack with the given id.
func (c *BillingConfig) GetPack(id string) (CreditPack, bool) {
	pack, ok := c.Packs[id]
	return pack, ok
}

// ReportCost returns the credit cost for a report type, 0 for unknown types.
func (c *BillingConfig) ReportCost(reportType string) int {
	return c.ReportCosts[reportType]
}

// IsValidReportType reports whether reportType is one of the supported
// report types.
func (c *BillingConfig) IsValidReportType(reportType string) bool {
	_, ok := c.ReportCosts[reportType]
	return ok
}
