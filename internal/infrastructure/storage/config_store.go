package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"ccms/internal/domain"
)

// TenantBySlug loads one tenant record; a miss wraps domain.ErrNotFound.
func (r *Repository) TenantBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	row, err := r.queryRow(ctx, r.sb.
		Select("id", "slug", "name", "default_locale", "voice_profile", "target_audience", "jurisdiction").
		From("tenants").
		Where(sq.Eq{"slug": slug}).
		Limit(1))
	if err != nil {
		return domain.Tenant{}, err
	}

	var t domain.Tenant
	err = row.Scan(&t.ID, &t.Slug, &t.Name, &t.DefaultLocale, &t.VoiceProfile, &t.TargetAudience, &t.Jurisdiction)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tenant{}, fmt.Errorf("tenant %s: %w", slug, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("scan tenant: %w", err)
	}
	return t, nil
}

// GlobalDefaults returns global chain rows, all chains when none are requested.
func (r *Repository) GlobalDefaults(ctx context.Context, chains []string) ([]domain.ChainRow, error) {
	q := r.sb.Select("chain", "config").From("global_defaults").OrderBy("chain")
	return r.chainRows(ctx, withChains(q, chains))
}

// TenantDefaults returns the tenant-level chain rows.
func (r *Repository) TenantDefaults(ctx context.Context, tenantID string, chains []string) ([]domain.ChainRow, error) {
	q := r.sb.Select("chain", "config").From("tenant_defaults").
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("chain")
	return r.chainRows(ctx, withChains(q, chains))
}

// TenantOverrides returns casino-specific chain rows; none is not an error.
func (r *Repository) TenantOverrides(ctx context.Context, tenantID, casinoSlug string, chains []string) ([]domain.ChainRow, error) {
	q := r.sb.Select("chain", "config").From("tenant_overrides").
		Where(sq.Eq{"tenant_id": tenantID, "casino_slug": casinoSlug}).
		OrderBy("chain")
	return r.chainRows(ctx, withChains(q, chains))
}

func withChains(q sq.SelectBuilder, chains []string) sq.SelectBuilder {
	if len(chains) == 0 {
		return q
	}
	return q.Where(sq.Eq{"chain": chains})
}

func (r *Repository) chainRows(ctx context.Context, q sq.SelectBuilder) ([]domain.ChainRow, error) {
	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ChainRow
	for rows.Next() {
		var (
			chain string
			raw   string
		)
		if err := rows.Scan(&chain, &raw); err != nil {
			return nil, fmt.Errorf("scan chain row: %w", err)
		}
		cfg := map[string]any{}
		if err := decodeJSON(raw, &cfg); err != nil {
			return nil, fmt.Errorf("chain %s: %w", chain, err)
		}
		out = append(out, domain.ChainRow{Chain: chain, Config: cfg})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// UpsertTenant inserts or replaces a tenant record.
func (r *Repository) UpsertTenant(ctx context.Context, t domain.Tenant) error {
	if t.DefaultLocale == "" {
		t.DefaultLocale = "en-GB"
	}
	if t.VoiceProfile == "" {
		t.VoiceProfile = "professional"
	}
	if t.TargetAudience == "" {
		t.TargetAudience = "casino_players"
	}
	return r.exec(ctx, r.sb.Insert("tenants").
		Columns("id", "slug", "name", "default_locale", "voice_profile", "target_audience", "jurisdiction").
		Values(t.ID, t.Slug, t.Name, t.DefaultLocale, t.VoiceProfile, t.TargetAudience, t.Jurisdiction).
		Suffix(`ON CONFLICT (id) DO UPDATE SET slug = excluded.slug, name = excluded.name,
			default_locale = excluded.default_locale, voice_profile = excluded.voice_profile,
			target_audience = excluded.target_audience, jurisdiction = excluded.jurisdiction`))
}

// UpsertGlobalDefault stores a chain config at the global layer.
func (r *Repository) UpsertGlobalDefault(ctx context.Context, chain string, cfg map[string]any) error {
	raw, err := encodeJSON(cfg)
	if err != nil {
		return err
	}
	return r.exec(ctx, r.sb.Insert("global_defaults").
		Columns("chain", "config").
		Values(chain, raw).
		Suffix("ON CONFLICT (chain) DO UPDATE SET config = excluded.config"))
}

// UpsertTenantDefault stores a chain config at the tenant layer.
func (r *Repository) UpsertTenantDefault(ctx context.Context, tenantID, chain string, cfg map[string]any) error {
	raw, err := encodeJSON(cfg)
	if err != nil {
		return err
	}
	return r.exec(ctx, r.sb.Insert("tenant_defaults").
		Columns("tenant_id", "chain", "config").
		Values(tenantID, chain, raw).
		Suffix("ON CONFLICT (tenant_id, chain) DO UPDATE SET config = excluded.config"))
}

// UpsertOverride stores a casino-specific chain config.
func (r *Repository) UpsertOverride(ctx context.Context, tenantID, casinoSlug, chain string, cfg map[string]any) error {
	raw, err := encodeJSON(cfg)
	if err != nil {
		return err
	}
	return r.exec(ctx, r.sb.Insert("tenant_overrides").
		Columns("tenant_id", "casino_slug", "chain", "config").
		Values(tenantID, casinoSlug, chain, raw).
		Suffix("ON CONFLICT (tenant_id, casino_slug, chain) DO UPDATE SET config = excluded.config"))
}
