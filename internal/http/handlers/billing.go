package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/synterhq/synter-api/internal/models"
	"github.com/synterhq/synter-api/internal/service"
)

// BillingHandler handles billing endpoints.
type BillingHandler struct {
	billingSvc *service.BillingService
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(billingSvc *service.BillingService) *BillingHandler {
	return &BillingHandler{billingSvc: billingSvc}
}

// CreateCheckoutInput represents a checkout session request. Exactly one
// of plan or pack must be set.
type CreateCheckoutInput struct {
	Body struct {
		Plan string `json:"plan,omitempty" doc:"Plan to subscribe to (PRO, ENTERPRISE)"`
		Pack string `json:"pack,omitempty" doc:"Credit pack to purchase"`
	}
}

// CreateCheckoutOutput represents a checkout session response.
type CreateCheckoutOutput struct {
	Body struct {
		CheckoutURL string `json:"checkout_url" doc:"Hosted checkout page URL"`
	}
}

// CreateCheckout creates a hosted checkout session for a plan upgrade or
// a one-off credit pack.
func (h *BillingHandler) CreateCheckout(ctx context.Context, input *CreateCheckoutInput) (*CreateCheckoutOutput, error) {
	workspaceID := getWorkspaceID(ctx)
	if workspaceID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	var (
		url string
		err error
	)
	switch {
	case input.Body.Plan != "" && input.Body.Pack != "":
		return nil, huma.Error400BadRequest("specify either plan or pack, not both")
	case input.Body.Plan != "":
		url, err = h.billingSvc.CreateSubscriptionCheckout(ctx, workspaceID, input.Body.Plan)
	case input.Body.Pack != "":
		url, err = h.billingSvc.CreatePackCheckout(ctx, workspaceID, input.Body.Pack)
	default:
		return nil, huma.Error400BadRequest("specify a plan or a pack")
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownPlan):
			return nil, huma.Error400BadRequest("unknown plan: " + input.Body.Plan)
		case errors.Is(err, service.ErrUnknownPack):
			return nil, huma.Error400BadRequest("unknown pack: " + input.Body.Pack)
		default:
			return nil, huma.Error500InternalServerError("failed to create checkout: " + err.Error())
		}
	}

	output := &CreateCheckoutOutput{}
	output.Body.CheckoutURL = url
	return output, nil
}

// BillingEventOutput represents a billing ledger entry in API responses.
type BillingEventOutput struct {
	ID              string  `json:"id" doc:"Event ID"`
	EventType       string  `json:"event_type" doc:"Ledger entry type"`
	CreditsAdded    int     `json:"credits_added" doc:"Credits granted by this entry"`
	CreditsConsumed int     `json:"credits_consumed" doc:"Credits consumed by this entry"`
	AmountUSDCents  int64   `json:"amount_usd_cents" doc:"Payment amount, if any"`
	ProductName     string  `json:"product_name,omitempty" doc:"Plan or pack name"`
	PlanChangedTo   *string `json:"plan_changed_to,omitempty" doc:"New plan, for plan changes"`
	ReportID        *string `json:"report_id,omitempty" doc:"Report that consumed credits"`
	CreatedAt       string  `json:"created_at" doc:"Entry timestamp"`
}

// ListBillingEventsInput represents list billing events request.
type ListBillingEventsInput struct {
	Limit  int `query:"limit" doc:"Max events to return (default 50, max 100)"`
	Offset int `query:"offset" doc:"Pagination offset"`
}

// ListBillingEventsOutput represents list billing events response.
type ListBillingEventsOutput struct {
	Body struct {
		Events []BillingEventOutput `json:"events" doc:"Ledger entries, newest first"`
	}
}

// ListBillingEvents returns the workspace's billing ledger.
func (h *BillingHandler) ListBillingEvents(ctx context.Context, input *ListBillingEventsInput) (*ListBillingEventsOutput, error) {
	workspaceID := getWorkspaceID(ctx)
	if workspaceID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	events, err := h.billingSvc.ListEvents(ctx, workspaceID, input.Limit, input.Offset)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list billing events: " + err.Error())
	}

	output := &ListBillingEventsOutput{}
	output.Body.Events = make([]BillingEventOutput, 0, len(events))
	for _, e := range events {
		output.Body.Events = append(output.Body.Events, billingEventToOutput(e))
	}
	return output, nil
}

func billingEventToOutput(e *models.BillingEvent) BillingEventOutput {
	return BillingEventOutput{
		ID:              e.ID,
		EventType:       string(e.EventType),
		CreditsAdded:    e.CreditsAdded,
		CreditsConsumed: e.CreditsConsumed,
		AmountUSDCents:  e.AmountUSDCents,
		ProductName:     e.ProductName,
		PlanChangedTo:   e.PlanChangedTo,
		ReportID:        e.ReportID,
		CreatedAt:       e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
