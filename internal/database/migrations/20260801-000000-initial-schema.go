package migrations

func init() {
	Register(Migration{
		Timestamp:   "20260801-000000",
		Description: "Initial schema: workspaces, reports, billing events, ad accounts, website snapshots",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS workspaces (
				id TEXT PRIMARY KEY,
				plan TEXT NOT NULL DEFAULT 'FREE',
				report_credits INTEGER NOT NULL DEFAULT 3,
				reports_generated_this_month INTEGER NOT NULL DEFAULT 0,
				credits_reset_date TEXT NOT NULL,
				can_publish INTEGER NOT NULL DEFAULT 0,
				stripe_customer_id TEXT,
				stripe_subscription_id TEXT,
				subscription_status TEXT,
				pending_downgrade INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_workspaces_stripe_customer ON workspaces(stripe_customer_id)`,

			`CREATE TABLE IF NOT EXISTS reports (
				id TEXT PRIMARY KEY,
				workspace_id TEXT NOT NULL,
				report_type TEXT NOT NULL,
				input_hash TEXT NOT NULL,
				website_id TEXT,
				title TEXT NOT NULL DEFAULT '',
				summary TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'generating',
				overall_score INTEGER,
				confidence TEXT NOT NULL DEFAULT 'LOW',
				data_json TEXT NOT NULL DEFAULT '{}',
				html_content TEXT,
				credit_cost INTEGER NOT NULL DEFAULT 0,
				generation_time_ms INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reports_workspace ON reports(workspace_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_reports_dedup ON reports(workspace_id, report_type, input_hash, status)`,
			`CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status, updated_at)`,

			`CREATE TABLE IF NOT EXISTS billing_events (
				id TEXT PRIMARY KEY,
				workspace_id TEXT NOT NULL,
				event_type TEXT NOT NULL,
				credits_added INTEGER NOT NULL DEFAULT 0,
				credits_consumed INTEGER NOT NULL DEFAULT 0,
				amount_usd_cents INTEGER NOT NULL DEFAULT 0,
				product_name TEXT NOT NULL DEFAULT '',
				plan_changed_to TEXT,
				report_id TEXT,
				source_event_id TEXT,
				processed INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL,
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_billing_events_workspace ON billing_events(workspace_id, created_at)`,
			// SQLite treats NULLs as distinct, so records without a source
			// event id never collide here.
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_billing_events_source ON billing_events(source_event_id)`,

			`CREATE TABLE IF NOT EXISTS ad_accounts (
				id TEXT PRIMARY KEY,
				workspace_id TEXT NOT NULL,
				platform TEXT NOT NULL,
				external_id TEXT NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'active',
				access_token_enc TEXT NOT NULL DEFAULT '',
				refresh_token_enc TEXT NOT NULL DEFAULT '',
				connected_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				FOREIGN KEY (workspace_id) REFERENCES workspaces(id)
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_ad_accounts_external ON ad_accounts(workspace_id, platform, external_id)`,

			`CREATE TABLE IF NOT EXISTS website_snapshots (
				id TEXT PRIMARY KEY,
				website_id TEXT NOT NULL,
				url TEXT NOT NULL,
				title TEXT NOT NULL DEFAULT '',
				technologies_json TEXT NOT NULL DEFAULT '{}',
				tracking_pixels_json TEXT NOT NULL DEFAULT '[]',
				industry TEXT NOT NULL DEFAULT '',
				business_model TEXT NOT NULL DEFAULT '',
				key_topics_json TEXT NOT NULL DEFAULT '[]',
				value_propositions_json TEXT NOT NULL DEFAULT '[]',
				fetched_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_website_snapshots_website ON website_snapshots(website_id, fetched_at)`,
		},
	})
}
