package storage

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		default_locale TEXT NOT NULL DEFAULT 'en-GB',
		voice_profile TEXT NOT NULL DEFAULT 'professional',
		target_audience TEXT NOT NULL DEFAULT 'casino_players',
		jurisdiction TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS global_defaults (
		chain TEXT PRIMARY KEY,
		config TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tenant_defaults (
		tenant_id TEXT NOT NULL,
		chain TEXT NOT NULL,
		config TEXT NOT NULL,
		PRIMARY KEY (tenant_id, chain)
	)`,
	`CREATE TABLE IF NOT EXISTS tenant_overrides (
		tenant_id TEXT NOT NULL,
		casino_slug TEXT NOT NULL,
		chain TEXT NOT NULL,
		config TEXT NOT NULL,
		PRIMARY KEY (tenant_id, casino_slug, chain)
	)`,
	`CREATE TABLE IF NOT EXISTS research_articles (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL DEFAULT '',
		casino_slug TEXT NOT NULL,
		locale TEXT NOT NULL,
		facts TEXT NOT NULL,
		sources TEXT NOT NULL DEFAULT '[]',
		serp_intent TEXT NOT NULL DEFAULT '{}',
		secondary_keywords TEXT NOT NULL DEFAULT '[]',
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS research_articles_lookup ON research_articles (casino_slug, locale, updated_at)`,
	`CREATE TABLE IF NOT EXISTS topic_clusters (
		casino_slug TEXT NOT NULL,
		name TEXT NOT NULL,
		keywords TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (casino_slug, name)
	)`,
	`CREATE TABLE IF NOT EXISTS pipeline_runs (
		run_id TEXT PRIMARY KEY,
		tenant_slug TEXT NOT NULL,
		casino_slug TEXT NOT NULL,
		locale TEXT NOT NULL,
		success INTEGER NOT NULL,
		dry_run INTEGER NOT NULL,
		published_url TEXT NOT NULL DEFAULT '',
		post_id BIGINT NOT NULL DEFAULT 0,
		compliance_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		word_count INTEGER NOT NULL DEFAULT 0,
		image_count INTEGER NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL
	)`,
}

// Migrate creates the tables when they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
