package handlers

import (
	"context"
	"sort"

	"github.com/synterhq/synter-api/internal/service"
)

// PricingHandler handles the public pricing catalog endpoint.
type PricingHandler struct {
	billingSvc *service.BillingService
}

// NewPricingHandler creates a new pricing handler.
func NewPricingHandler(billingSvc *service.BillingService) *PricingHandler {
	return &PricingHandler{billingSvc: billingSvc}
}

// PlanOutput represents a subscription plan in the pricing catalog.
type PlanOutput struct {
	Name           string `json:"name" doc:"Plan name (FREE, PRO, ENTERPRISE)"`
	PriceUSDCents  int64  `json:"price_usd_cents" doc:"Monthly price in USD cents"`
	MonthlyCredits int    `json:"monthly_credits" doc:"Report credits granted each month"`
	MonthlyReports int    `json:"monthly_reports" doc:"Hard monthly report cap (0 = unlimited)"`
	CanPublish     bool   `json:"can_publish" doc:"Whether reports can be shared publicly"`
}

// PackOutput represents a one-off credit pack in the pricing catalog.
type PackOutput struct {
	ID            string `json:"id" doc:"Pack ID"`
	Credits       int    `json:"credits" doc:"Credits granted"`
	PriceUSDCents int64  `json:"price_usd_cents" doc:"Price in USD cents"`
}

// GetPricingOutput represents the pricing catalog response.
type GetPricingOutput struct {
	Body struct {
		Plans       []PlanOutput   `json:"plans" doc:"Subscription plans, cheapest first"`
		Packs       []PackOutput   `json:"packs" doc:"One-off credit packs, cheapest first"`
		ReportCosts map[string]int `json:"report_costs" doc:"Credit cost per report type"`
	}
}

// GetPricing returns the plan and credit-pack catalog. This is a public
// endpoint for use in pricing pages.
func (h *PricingHandler) GetPricing(ctx context.Context, _ *struct{}) (*GetPricingOutput, error) {
	catalog := h.billingSvc.Catalog(ctx)

	output := &GetPricingOutput{}
	for _, plan := range catalog.Plans {
		output.Body.Plans = append(output.Body.Plans, PlanOutput{
			Name:           plan.Name,
			PriceUSDCents:  plan.PriceUSDCents,
			MonthlyCredits: plan.MonthlyCredits,
			MonthlyReports: plan.MonthlyReports,
			CanPublish:     plan.CanPublish,
		})
	}
	sort.Slice(output.Body.Plans, func(i, j int) bool {
		return output.Body.Plans[i].PriceUSDCents < output.Body.Plans[j].PriceUSDCents
	})

	for _, pack := range catalog.Packs {
		output.Body.Packs = append(output.Body.Packs, PackOutput{
			ID:            pack.ID,
			Credits:       pack.Credits,
			PriceUSDCents: pack.PriceUSDCents,
		})
	}
	sort.Slice(output.Body.Packs, func(i, j int) bool {
		return output.Body.Packs[i].PriceUSDCents < output.Body.Packs[j].PriceUSDCents
	})

	output.Body.ReportCosts = catalog.ReportCosts
	return output, nil
}
