package storage

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ccms/internal/domain"
)

// RecordRun writes the post-publish summary of a pipeline execution.
func (r *Repository) RecordRun(ctx context.Context, rec domain.RunRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return r.exec(ctx, r.sb.Insert("pipeline_runs").
		Columns("run_id", "tenant_slug", "casino_slug", "locale", "success", "dry_run", "published_url",
			"post_id", "compliance_score", "word_count", "image_count", "duration_ms", "created_at").
		Values(rec.RunID, rec.TenantSlug, rec.CasinoSlug, rec.Locale, boolInt(rec.Success), boolInt(rec.DryRun),
			rec.PublishedURL, rec.PostID, rec.ComplianceScore, rec.WordCount, rec.ImageCount, rec.DurationMS,
			rec.CreatedAt.UnixNano()).
		Suffix(`ON CONFLICT (run_id) DO UPDATE SET success = excluded.success, published_url = excluded.published_url,
			post_id = excluded.post_id, compliance_score = excluded.compliance_score, duration_ms = excluded.duration_ms`))
}

// RecentRuns lists the latest runs for a casino, newest first.
func (r *Repository) RecentRuns(ctx context.Context, casinoSlug string, limit uint64) ([]domain.RunRecord, error) {
	rows, err := r.query(ctx, r.sb.
		Select("run_id", "tenant_slug", "casino_slug", "locale", "success", "dry_run", "published_url",
			"post_id", "compliance_score", "word_count", "image_count", "duration_ms", "created_at").
		From("pipeline_runs").
		Where(sq.Eq{"casino_slug": casinoSlug}).
		OrderBy("created_at DESC").
		Limit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		var (
			rec             domain.RunRecord
			success, dryRun int
			createdAt       int64
		)
		if err := rows.Scan(&rec.RunID, &rec.TenantSlug, &rec.CasinoSlug, &rec.Locale, &success, &dryRun,
			&rec.PublishedURL, &rec.PostID, &rec.ComplianceScore, &rec.WordCount, &rec.ImageCount,
			&rec.DurationMS, &createdAt); err != nil {
			return nil, err
		}
		rec.Success = success == 1
		rec.DryRun = dryRun == 1
		rec.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
