package models

import "time"

// BillingEventType classifies an entry in the append-only billing log.
type BillingEventType string

const (
	EventCreditsPurchased     BillingEventType = "credits_purchased"
	EventSubscriptionCreated  BillingEventType = "subscription_created"
	EventSubscriptionUpdated  BillingEventType = "subscription_updated"
	EventSubscriptionCanceled BillingEventType = "subscription_canceled"
	EventReportGenerated      BillingEventType = "report_generated"
	EventPaymentSucceeded     BillingEventType = "payment_succeeded"
)

// BillingEvent is one row of the append-only billing log: either a
// payment-processor notification or a credit-consuming action. The log is
// the source of truth reconciling ledger state with the processor.
type BillingEvent struct {
	ID              string           `json:"id"`
	WorkspaceID     string           `json:"workspace_id"`
	EventType       BillingEventType `json:"event_type"`
	CreditsAdded    int              `json:"credits_added"`
	CreditsConsumed int              `json:"credits_consumed"`
	AmountUSDCents  int64            `json:"amount_usd_cents"`
	ProductName     string           `json:"product_name,omitempty"`
	PlanChangedTo   *string          `json:"plan_changed_to,omitempty"`
	ReportID        *string          `json:"report_id,omitempty"`

	// SourceEventID is the payment processor's event id. UNIQUE in
	// storage so webhook replays are applied at most once.
	SourceEventID *string `json:"source_event_id,omitempty"`

	Processed bool      `json:"processed"`
	CreatedAt time.Time `json:"created_at"`
}
