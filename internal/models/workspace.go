package models

import "time"

// Workspace is the billing and entitlement scope. Credits, plans, and
// monthly caps attach here, never to individual users.
type Workspace struct {
	ID                        string    `json:"id"`
	Plan                      string    `json:"plan"` // FREE, PRO, ENTERPRISE
	ReportCredits             int       `json:"report_credits"`
	ReportsGeneratedThisMonth int       `json:"reports_generated_this_month"`
	CreditsResetDate          time.Time `json:"credits_reset_date"`
	CanPublish                bool      `json:"can_publish"`

	// Payment processor references
	StripeCustomerID     *string `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string `json:"stripe_subscription_id,omitempty"`
	SubscriptionStatus   string  `json:"subscription_status,omitempty"` // active, canceled, past_due, ""

	// Set when a cancellation is recorded under the period_end policy;
	// the next monthly reset downgrades the workspace.
	PendingDowngrade bool `json:"pending_downgrade,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entitlements is the caller-facing view of a workspace's current
// capabilities.
type Entitlements struct {
	WorkspaceID               string    `json:"workspace_id"`
	Plan                      string    `json:"plan"`
	ReportCredits             int       `json:"report_credits"`
	ReportsGeneratedThisMonth int       `json:"reports_generated_this_month"`
	CanPublish                bool      `json:"can_publish"`
	CreditsResetDate          time.Time `json:"credits_reset_date"`
}

// AccessCheck is the result of asking whether a workspace may generate a
// report of a given type right now.
type AccessCheck struct {
	CanGenerate      bool   `json:"can_generate"`
	HasCredits       bool   `json:"has_credits"`
	CreditsAvailable int    `json:"credits_available"`
	CreditsNeeded    int    `json:"credits_needed"`
	LimitReason      string `json:"limit_reason,omitempty"`
	UpgradeRequired  bool   `json:"upgrade_required"`
}

// ConsumeResult is the outcome of a credit consumption attempt.
type ConsumeResult struct {
	Success          bool   `json:"success"`
	CreditsConsumed  int    `json:"credits_consumed"`
	CreditsRemaining int    `json:"credits_remaining"`
	Reason           string `json:"reason,omitempty"`
	UpgradeRequired  bool   `json:"upgrade_required,omitempty"`
}
