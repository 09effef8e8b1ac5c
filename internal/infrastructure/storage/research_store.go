package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"ccms/internal/domain"
)

// LatestResearch returns the newest research row for (casino, locale).
func (r *Repository) LatestResearch(ctx context.Context, casinoSlug, locale string) (domain.ResearchRecord, error) {
	row, err := r.queryRow(ctx, r.sb.
		Select("id", "tenant_id", "casino_slug", "locale", "facts", "sources", "serp_intent", "secondary_keywords", "updated_at").
		From("research_articles").
		Where(sq.Eq{"casino_slug": casinoSlug, "locale": locale}).
		OrderBy("updated_at DESC").
		Limit(1))
	if err != nil {
		return domain.ResearchRecord{}, err
	}

	var (
		rec                                      domain.ResearchRecord
		facts, sources, serpIntent, secondaryKWs string
		updatedAt                                int64
	)
	err = row.Scan(&rec.ID, &rec.TenantID, &rec.CasinoSlug, &rec.Locale, &facts, &sources, &serpIntent, &secondaryKWs, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ResearchRecord{}, fmt.Errorf("research %s/%s: %w", casinoSlug, locale, domain.ErrNotFound)
	}
	if err != nil {
		return domain.ResearchRecord{}, fmt.Errorf("scan research: %w", err)
	}

	if err := decodeJSON(facts, &rec.Facts); err != nil {
		return domain.ResearchRecord{}, fmt.Errorf("facts: %w", err)
	}
	if err := decodeJSON(sources, &rec.Sources); err != nil {
		return domain.ResearchRecord{}, fmt.Errorf("sources: %w", err)
	}
	if err := decodeJSON(serpIntent, &rec.SERPIntent); err != nil {
		return domain.ResearchRecord{}, fmt.Errorf("serp intent: %w", err)
	}
	if err := decodeJSON(secondaryKWs, &rec.SecondaryKeywords); err != nil {
		return domain.ResearchRecord{}, fmt.Errorf("secondary keywords: %w", err)
	}
	rec.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return rec, nil
}

// SaveResearch inserts a research row, keeping history; lookups take the newest.
func (r *Repository) SaveResearch(ctx context.Context, rec domain.ResearchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	if rec.Facts == nil {
		rec.Facts = map[string]any{}
	}
	if rec.Sources == nil {
		rec.Sources = []domain.Source{}
	}
	if rec.SERPIntent == nil {
		rec.SERPIntent = map[string]any{}
	}
	if rec.SecondaryKeywords == nil {
		rec.SecondaryKeywords = []string{}
	}

	facts, err := encodeJSON(rec.Facts)
	if err != nil {
		return err
	}
	sources, err := encodeJSON(rec.Sources)
	if err != nil {
		return err
	}
	serpIntent, err := encodeJSON(rec.SERPIntent)
	if err != nil {
		return err
	}
	secondaryKWs, err := encodeJSON(rec.SecondaryKeywords)
	if err != nil {
		return err
	}

	return r.exec(ctx, r.sb.Insert("research_articles").
		Columns("id", "tenant_id", "casino_slug", "locale", "facts", "sources", "serp_intent", "secondary_keywords", "updated_at").
		Values(rec.ID, rec.TenantID, rec.CasinoSlug, rec.Locale, facts, sources, serpIntent, secondaryKWs, rec.UpdatedAt.UnixNano()).
		Suffix(`ON CONFLICT (id) DO UPDATE SET facts = excluded.facts, sources = excluded.sources,
			serp_intent = excluded.serp_intent, secondary_keywords = excluded.secondary_keywords,
			updated_at = excluded.updated_at`))
}

// TopicClusters returns the clusters for a casino ordered by name.
func (r *Repository) TopicClusters(ctx context.Context, casinoSlug string) ([]domain.TopicCluster, error) {
	rows, err := r.query(ctx, r.sb.
		Select("name", "keywords").
		From("topic_clusters").
		Where(sq.Eq{"casino_slug": casinoSlug}).
		OrderBy("name"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TopicCluster
	for rows.Next() {
		var (
			tc  domain.TopicCluster
			raw string
		)
		if err := rows.Scan(&tc.Name, &raw); err != nil {
			return nil, fmt.Errorf("scan topic cluster: %w", err)
		}
		if err := decodeJSON(raw, &tc.Keywords); err != nil {
			return nil, fmt.Errorf("cluster %s: %w", tc.Name, err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// UpsertTopicCluster stores a cluster keyed by (casino, name).
func (r *Repository) UpsertTopicCluster(ctx context.Context, casinoSlug string, tc domain.TopicCluster) error {
	if tc.Keywords == nil {
		tc.Keywords = []string{}
	}
	raw, err := encodeJSON(tc.Keywords)
	if err != nil {
		return err
	}
	return r.exec(ctx, r.sb.Insert("topic_clusters").
		Columns("casino_slug", "name", "keywords").
		Values(casinoSlug, tc.Name, raw).
		Suffix("ON CONFLICT (casino_slug, name) DO UPDATE SET keywords = excluded.keywords"))
}
