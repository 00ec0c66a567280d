// Package main is the entry point for the synter-api server.
// Note: Workspace identity, sign-in, and membership are handled by the
// identity provider; this service receives workspace lifecycle webhooks.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/synterhq/synter-api/internal/config"
	"github.com/synterhq/synter-api/internal/database"
	"github.com/synterhq/synter-api/internal/http/handlers"
	"github.com/synterhq/synter-api/internal/http/mw"
	"github.com/synterhq/synter-api/internal/logging"
	"github.com/synterhq/synter-api/internal/repository"
	"github.com/synterhq/synter-api/internal/service"
	"github.com/synterhq/synter-api/internal/version"
	"github.com/synterhq/synter-api/internal/worker"
)

func main() {
	// Initialize logger with TTY detection, source paths, and format control
	logger := logging.SetDefault()

	// Log version info first thing
	v := version.Get()
	logger.Info("starting synter-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Run migrations (with logging for each migration applied)
	if err := database.MigrateWithLogger(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Log current schema version
	schemaVersion, err := database.GetLatestVersion(db)
	if err != nil {
		logger.Warn("failed to get schema version", "error", err)
	} else if schemaVersion != "" {
		logger.Info("database schema ready", "schema_version", schemaVersion)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Fail reports left in generating by a previous server run
	staleCount, err := repos.Report.MarkStaleGeneratingFailed(context.Background(), cfg.ReportStaleAfter)
	if err != nil {
		logger.Warn("failed to clean up stale reports", "error", err)
	} else if staleCount > 0 {
		logger.Info("cleaned up stale generating reports", "count", staleCount)
	}

	// Initialize services
	services, err := service.NewServices(cfg, repos, logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	// Start the stale-report and snapshot sweeper
	sweeper := worker.New(
		repos.Report,
		repos.Snapshot,
		worker.Config{
			Interval:    cfg.SweepInterval,
			StaleAfter:  cfg.ReportStaleAfter,
			SnapshotTTL: cfg.SnapshotMaxAge,
		},
		logger,
	)
	ctx, cancel := context.WithCancel(context.Background())
	sweeper.Start(ctx)

	// Create router
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mw.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(mw.Version())

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Request size limit (1MB) - prevent large payload attacks
	router.Use(middleware.RequestSize(1 * 1024 * 1024))

	// Global rate limit by IP (fallback for unauthenticated requests)
	// Authenticated workspaces get plan-based limits applied later
	router.Use(httprate.LimitByIP(100, time.Minute))

	// Global concurrency throttle - prevent system overload
	router.Use(middleware.Throttle(100))

	// Create Huma API config for main API with OpenAPI docs
	humaConfig := huma.DefaultConfig("Synter API", v.Version)
	humaConfig.Info.Description = "Marketing intelligence API that scores tracking readiness, ad spend baselines, and competitor visibility."
	humaConfig.Servers = []*huma.Server{
		{URL: cfg.BaseURL, Description: "API Server"},
	}
	// Add security scheme for Bearer auth
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:        "http",
			Scheme:      "bearer",
			Description: "Workspace authentication. Include a workspace token in the Authorization header as `Bearer <token>`.",
		},
	}

	// Main API with OpenAPI docs
	api := humachi.New(router, humaConfig)

	// Config for hidden routes (K8s probes - no docs needed)
	hiddenConfig := huma.DefaultConfig("Synter API", v.Version)
	hiddenConfig.DocsPath = ""
	hiddenConfig.OpenAPIPath = ""
	hiddenConfig.SchemasPath = ""
	hiddenAPI := humachi.New(router, hiddenConfig)

	// Config for protected routes (no separate docs - they're served by the main API)
	protectedConfig := huma.DefaultConfig("Synter API", v.Version)
	protectedConfig.Info.Description = humaConfig.Info.Description
	protectedConfig.Servers = humaConfig.Servers
	protectedConfig.DocsPath = ""
	protectedConfig.OpenAPIPath = ""
	protectedConfig.SchemasPath = ""

	// Health check (public, shown in docs)
	huma.Get(api, "/api/v1/health", handlers.HealthCheck)

	// Public pricing catalog (for dynamic pricing pages)
	huma.Get(api, "/api/v1/pricing", handlers.NewPricingHandler(services.Billing).GetPricing)

	// Kubernetes probes (hidden from docs - internal use only)
	huma.Get(hiddenAPI, "/healthz", handlers.Livez)
	readyzHandler := handlers.NewReadyzHandler(db)
	huma.Get(hiddenAPI, "/readyz", readyzHandler.Readyz)

	// Stripe webhook (signature verified by handler, not workspace auth)
	if cfg.StripeWebhookSecret != "" {
		stripeWebhook := handlers.NewStripeWebhookHandler(cfg, services.Billing, logger)
		router.Post("/api/v1/webhooks/stripe", stripeWebhook.HandleWebhook)
		logger.Info("stripe webhook endpoint enabled")
	}

	// Workspace lifecycle webhook (Svix-signed by the identity provider)
	if cfg.WorkspaceWebhookSecret != "" {
		workspaceWebhook := handlers.NewWorkspaceWebhookHandler(cfg, services.Workspace, logger)
		router.Post("/api/v1/webhooks/workspace", workspaceWebhook.HandleWebhook)
		logger.Info("workspace webhook endpoint enabled")
	}

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth([]byte(cfg.JWTSecret)))
		r.Use(mw.RateLimitByWorkspace(mw.DefaultRateLimitConfig()))

		// Create a new Huma API for protected routes
		protectedAPI := humachi.New(r, protectedConfig)

		// Report routes
		reportsHandler := handlers.NewReportsHandler(services.Report)
		huma.Post(protectedAPI, "/api/v1/reports", reportsHandler.GenerateReport)
		huma.Get(protectedAPI, "/api/v1/reports", reportsHandler.ListReports)
		huma.Get(protectedAPI, "/api/v1/reports/{id}", reportsHandler.GetReport)
		huma.Delete(protectedAPI, "/api/v1/reports/{id}", reportsHandler.DeleteReport)

		// Raw HTTP handler for the rendered report (text/html content type)
		r.Get("/api/v1/reports/{id}/html", reportsHandler.ServeReportHTML)

		// Entitlement routes
		huma.Get(protectedAPI, "/api/v1/entitlements", handlers.NewEntitlementsHandler(services.Entitlement).GetEntitlements)

		// Billing routes
		billingHandler := handlers.NewBillingHandler(services.Billing)
		huma.Post(protectedAPI, "/api/v1/billing/checkout", billingHandler.CreateCheckout)
		huma.Get(protectedAPI, "/api/v1/billing/events", billingHandler.ListBillingEvents)

		// Ad account routes
		adAccountsHandler := handlers.NewAdAccountsHandler(services.Spend)
		huma.Post(protectedAPI, "/api/v1/ad-accounts", adAccountsHandler.ConnectAdAccount)
		huma.Get(protectedAPI, "/api/v1/ad-accounts", adAccountsHandler.ListAdAccounts)
		huma.Delete(protectedAPI, "/api/v1/ad-accounts/{id}", adAccountsHandler.DisconnectAdAccount)
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		<-sigChan

		logger.Info("shutting down server")

		// Stop the sweeper first
		cancel()
		sweeper.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	// Start server
	logger.Info("starting server", "port", cfg.Port, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
