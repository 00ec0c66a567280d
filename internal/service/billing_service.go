package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"

	"github.com/synterhq/synter-api/internal/config"
	"github.com/synterhq/synter-api/internal/models"
	"github.com/synterhq/synter-api/internal/repository"
)

// BillingService reconciles the credit ledger with Stripe. Webhook events
// are applied idempotently keyed on the Stripe event id, so replays and
// retries land at most once.
type BillingService struct {
	repos   *repository.Repositories
	cfg     *config.Config
	pricing *config.PricingLoader
	logger  *slog.Logger
}

// NewBillingService creates a new billing service.
func NewBillingService(repos *repository.Repositories, cfg *config.Config, pricing *config.PricingLoader, logger *slog.Logger) *BillingService {
	stripe.Key = cfg.StripeSecretKey

	return &BillingService{
		repos:   repos,
		cfg:     cfg,
		pricing: pricing,
		logger:  logger,
	}
}

// Catalog returns the current plan and credit-pack catalog, with any
// object-storage pricing overrides applied.
func (s *BillingService) Catalog(ctx context.Context) config.BillingConfig {
	return s.pricing.Catalog(ctx)
}

// ListEvents returns the workspace's billing log, newest first.
func (s *BillingService) ListEvents(ctx context.Context, workspaceID string, limit, offset int) ([]*models.BillingEvent, error) {
	return s.repos.BillingEvent.ListByWorkspace(ctx, workspaceID, limit, offset)
}

// ========================================
// Checkout
// ========================================

// CreateSubscriptionCheckout starts a Stripe checkout for a paid plan and
// returns the hosted checkout URL.
func (s *BillingService) CreateSubscriptionCheckout(ctx context.Context, workspaceID, planName string) (string, error) {
	catalog := s.pricing.Catalog(ctx)
	plan, ok := catalog.Plans[planName]
	if !ok || plan.PriceUSDCents == 0 {
		return "", ErrUnknownPlan
	}
	if plan.StripePriceID == "" {
		return "", fmt.Errorf("plan %s has no Stripe price configured", planName)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(plan.StripePriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(s.cfg.FrontendURL + "/billing?status=success"),
		CancelURL:  stripe.String(s.cfg.FrontendURL + "/billing?status=canceled"),
	}
	params.AddMetadata("workspace_id", workspaceID)
	params.AddMetadata("plan", planName)

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.logger.Info("created subscription checkout",
		"workspace_id", workspaceID,
		"plan", planName,
		"session_id", sess.ID,
	)
	return sess.URL, nil
}

// CreatePackCheckout starts a one-off Stripe checkout for a credit pack
// and returns the hosted checkout URL.
func (s *BillingService) CreatePackCheckout(ctx context.Context, workspaceID, packID string) (string, error) {
	catalog := s.pricing.Catalog(ctx)
	pack, ok := catalog.GetPack(packID)
	if !ok {
		return "", ErrUnknownPack
	}
	if pack.StripePriceID == "" {
		return "", fmt.Errorf("pack %s has no Stripe price configured", packID)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(pack.StripePriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(s.cfg.FrontendURL + "/billing?status=success"),
		CancelURL:  stripe.String(s.cfg.FrontendURL + "/billing?status=canceled"),
	}
	params.AddMetadata("workspace_id", workspaceID)
	params.AddMetadata("pack_id", packID)

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.logger.Info("created pack checkout",
		"workspace_id", workspaceID,
		"pack_id", packID,
		"session_id", sess.ID,
	)
	return sess.URL, nil
}

// ========================================
// Webhook event application
// ========================================

// HandleEvent applies a verified Stripe event to the ledger.
func (s *BillingService) HandleEvent(ctx context.Context, event stripe.Event) error {
	s.logger.Info("received Stripe webhook", "type", event.Type, "id", event.ID)

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)

	case "invoice.paid":
		return s.handleInvoicePaid(ctx, event)

	case "customer.subscription.updated":
		return s.handleSubscriptionUpdated(ctx, event)

	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event)

	default:
		s.logger.Debug("unhandled webhook event type", "type", event.Type)
		return nil
	}
}

// handleCheckoutCompleted applies a finished checkout: credit packs add
// credits, subscription checkouts switch the plan.
func (s *BillingService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	workspaceID, ok := sess.Metadata["workspace_id"]
	if !ok || workspaceID == "" {
		s.logger.Warn("checkout session missing workspace_id", "session_id", sess.ID)
		return nil
	}

	ws, err := s.ensureWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if sess.Customer != nil && sess.Customer.ID != "" {
		if ws.StripeCustomerID == nil || *ws.StripeCustomerID != sess.Customer.ID {
			// Targeted column write: the loaded row may already be stale
			// and must not be written back wholesale.
			if err := s.repos.Workspace.SetStripeCustomerID(ctx, ws.ID, sess.Customer.ID); err != nil {
				return fmt.Errorf("failed to link Stripe customer: %w", err)
			}
			ws.StripeCustomerID = &sess.Customer.ID
		}
	}

	if packID := sess.Metadata["pack_id"]; packID != "" {
		return s.applyPackPurchase(ctx, event.ID, ws, packID, sess.AmountTotal)
	}
	if planName := sess.Metadata["plan"]; planName != "" {
		return s.applySubscription(ctx, event.ID, ws, planName, &sess)
	}

	s.logger.Warn("checkout session missing pack_id and plan metadata", "session_id", sess.ID)
	return nil
}

func (s *BillingService) applyPackPurchase(ctx context.Context, sourceEventID string, ws *models.Workspace, packID string, amountCents int64) error {
	catalog := s.pricing.Catalog(ctx)
	pack, ok := catalog.GetPack(packID)
	if !ok {
		s.logger.Warn("checkout references unknown credit pack", "pack_id", packID, "workspace_id", ws.ID)
		return nil
	}

	// The event row is the idempotency gate: a replayed webhook stops
	// here before any credits move.
	applied, err := s.recordEvent(ctx, &models.BillingEvent{
		ID:             newID("evt_"),
		WorkspaceID:    ws.ID,
		EventType:      models.EventCreditsPurchased,
		CreditsAdded:   pack.Credits,
		AmountUSDCents: amountCents,
		ProductName:    packID,
		SourceEventID:  &sourceEventID,
		Processed:      true,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil || !applied {
		return err
	}

	if err := s.repos.Workspace.AddCredits(ctx, ws.ID, pack.Credits); err != nil {
		return fmt.Errorf("failed to add pack credits: %w", err)
	}

	s.logger.Info("applied credit pack purchase",
		"workspace_id", ws.ID,
		"pack_id", packID,
		"credits", pack.Credits,
	)
	return nil
}

func (s *BillingService) applySubscription(ctx context.Context, sourceEventID string, ws *models.Workspace, planName string, sess *stripe.CheckoutSession) error {
	catalog := s.pricing.Catalog(ctx)
	plan, ok := catalog.Plans[planName]
	if !ok {
		s.logger.Warn("checkout references unknown plan", "plan", planName, "workspace_id", ws.ID)
		return nil
	}

	applied, err := s.recordEvent(ctx, &models.BillingEvent{
		ID:             newID("evt_"),
		WorkspaceID:    ws.ID,
		EventType:      models.EventSubscriptionCreated,
		CreditsAdded:   plan.MonthlyCredits,
		AmountUSDCents: sess.AmountTotal,
		ProductName:    planName,
		PlanChangedTo:  &planName,
		SourceEventID:  &sourceEventID,
		Processed:      true,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil || !applied {
		return err
	}

	ws.Plan = plan.Name
	ws.CanPublish = plan.CanPublish
	ws.ReportCredits = plan.MonthlyCredits
	ws.ReportsGeneratedThisMonth = 0
	ws.CreditsResetDate = time.Now().UTC().AddDate(0, 0, config.CreditResetPeriodDays)
	ws.SubscriptionStatus = "active"
	ws.PendingDowngrade = false
	if sess.Subscription != nil && sess.Subscription.ID != "" {
		ws.StripeSubscriptionID = &sess.Subscription.ID
	}

	if err := s.repos.Workspace.Update(ctx, ws); err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}

	s.logger.Info("applied subscription checkout",
		"workspace_id", ws.ID,
		"plan", planName,
		"credits", plan.MonthlyCredits,
	)
	return nil
}

// handleInvoicePaid records recurring subscription payments for audit. The
// monthly reset grants the allocation, so no credits move here.
func (s *BillingService) handleInvoicePaid(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("failed to unmarshal invoice: %w", err)
	}

	if invoice.Subscription == nil {
		return nil
	}

	ws, err := s.workspaceForCustomer(ctx, invoice.Customer)
	if err != nil || ws == nil {
		if ws == nil && err == nil {
			s.logger.Warn("invoice for unknown customer", "invoice_id", invoice.ID)
		}
		return err
	}

	_, err = s.recordEvent(ctx, &models.BillingEvent{
		ID:             newID("evt_"),
		WorkspaceID:    ws.ID,
		EventType:      models.EventPaymentSucceeded,
		AmountUSDCents: invoice.AmountPaid,
		ProductName:    ws.Plan,
		SourceEventID:  &event.ID,
		Processed:      true,
		CreatedAt:      time.Now().UTC(),
	})
	return err
}

// handleSubscriptionUpdated mirrors subscription state onto the
// workspace. A cancel-at-period-end flag flips the pending downgrade when
// the cancellation policy defers revocation.
func (s *BillingService) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	ws, err := s.workspaceForCustomer(ctx, sub.Customer)
	if err != nil || ws == nil {
		if ws == nil && err == nil {
			s.logger.Warn("subscription update for unknown customer", "subscription_id", sub.ID)
		}
		return err
	}

	applied, err := s.recordEvent(ctx, &models.BillingEvent{
		ID:            newID("evt_"),
		WorkspaceID:   ws.ID,
		EventType:     models.EventSubscriptionUpdated,
		ProductName:   ws.Plan,
		SourceEventID: &event.ID,
		Processed:     true,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil || !applied {
		return err
	}

	ws.SubscriptionStatus = string(sub.Status)
	if sub.CancelAtPeriodEnd && s.cfg.CancellationPolicy == config.CancelAtPeriodEnd {
		ws.PendingDowngrade = true
	}

	// Mirror columns only; a debit that landed since the load survives.
	if err := s.repos.Workspace.UpdateSubscriptionState(ctx, ws); err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}

	s.logger.Info("applied subscription update",
		"workspace_id", ws.ID,
		"status", ws.SubscriptionStatus,
		"pending_downgrade", ws.PendingDowngrade,
	)
	return nil
}

// handleSubscriptionDeleted applies the configured cancellation policy.
// Purchased credits are never clawed back.
func (s *BillingService) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	ws, err := s.workspaceForCustomer(ctx, sub.Customer)
	if err != nil || ws == nil {
		if ws == nil && err == nil {
			s.logger.Warn("cancellation for unknown customer", "subscription_id", sub.ID)
		}
		return err
	}

	applied, err := s.recordEvent(ctx, &models.BillingEvent{
		ID:            newID("evt_"),
		WorkspaceID:   ws.ID,
		EventType:     models.EventSubscriptionCanceled,
		ProductName:   ws.Plan,
		SourceEventID: &event.ID,
		Processed:     true,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil || !applied {
		return err
	}

	ws.SubscriptionStatus = "canceled"

	switch s.cfg.CancellationPolicy {
	case config.CancelImmediate:
		ws.Plan = config.PlanFree
		ws.CanPublish = false
		ws.PendingDowngrade = false
		ws.StripeSubscriptionID = nil

	case config.CancelAtPeriodEnd:
		ws.PendingDowngrade = true

	case config.CancelNone:
		// Audit only
	}

	// Credits are never clawed back, so the ledger columns stay out of
	// this write entirely.
	if err := s.repos.Workspace.UpdateSubscriptionState(ctx, ws); err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}

	s.logger.Info("applied subscription cancellation",
		"workspace_id", ws.ID,
		"policy", s.cfg.CancellationPolicy,
	)
	return nil
}

// ========================================
// Helpers
// ========================================

// recordEvent appends a billing event, reporting false when the source
// event was already applied.
func (s *BillingService) recordEvent(ctx context.Context, event *models.BillingEvent) (bool, error) {
	err := s.repos.BillingEvent.Create(ctx, event)
	if errors.Is(err, repository.ErrDuplicateSourceEvent) {
		s.logger.Info("duplicate billing event ignored",
			"source_event_id", *event.SourceEventID,
			"type", event.EventType,
		)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to record billing event: %w", err)
	}
	return true, nil
}

func (s *BillingService) ensureWorkspace(ctx context.Context, workspaceID string) (*models.Workspace, error) {
	ws, err := s.repos.Workspace.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	if ws != nil {
		return ws, nil
	}

	catalog := s.pricing.Catalog(ctx)
	plan := catalog.GetPlan(config.PlanFree)
	now := time.Now().UTC()
	ws = &models.Workspace{
		ID:               workspaceID,
		Plan:             plan.Name,
		ReportCredits:    plan.MonthlyCredits,
		CreditsResetDate: now.AddDate(0, 0, config.CreditResetPeriodDays),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repos.Workspace.Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return ws, nil
}

func (s *BillingService) workspaceForCustomer(ctx context.Context, customer *stripe.Customer) (*models.Workspace, error) {
	if customer == nil || customer.ID == "" {
		return nil, nil
	}
	ws, err := s.repos.Workspace.GetByStripeCustomerID(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up workspace by customer: %w", err)
	}
	return ws, nil
}
