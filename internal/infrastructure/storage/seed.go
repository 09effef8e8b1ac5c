package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"ccms/internal/domain"
)

// Seed is a YAML fixture describing tenants, chain layers, research and vector documents.
type Seed struct {
	Tenants        []domain.Tenant                      `yaml:"tenants"`
	GlobalDefaults map[string]map[string]any            `yaml:"global_defaults"`
	TenantDefaults map[string]map[string]map[string]any `yaml:"tenant_defaults"`
	Overrides      []SeedOverride                       `yaml:"overrides"`
	Research       []SeedResearch                       `yaml:"research"`
	TopicClusters  []SeedTopicCluster                   `yaml:"topic_clusters"`
	Documents      []domain.IndexedDocument             `yaml:"documents"`
}

// SeedOverride holds casino-specific chains keyed by tenant slug.
type SeedOverride struct {
	Tenant string                    `yaml:"tenant"`
	Casino string                    `yaml:"casino"`
	Chains map[string]map[string]any `yaml:"chains"`
}

type SeedResearch struct {
	Tenant            string          `yaml:"tenant"`
	Casino            string          `yaml:"casino"`
	Locale            string          `yaml:"locale"`
	Facts             map[string]any  `yaml:"facts"`
	Sources           []domain.Source `yaml:"sources"`
	SERPIntent        map[string]any  `yaml:"serp_intent"`
	SecondaryKeywords []string        `yaml:"secondary_keywords"`
	UpdatedAt         time.Time       `yaml:"updated_at"`
}

type SeedTopicCluster struct {
	Casino   string   `yaml:"casino"`
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// SeedSummary counts what a seed wrote.
type SeedSummary struct {
	Tenants       int
	ChainRows     int
	Research      int
	TopicClusters int
	Documents     int
}

// LoadSeed parses a YAML fixture from disk.
func LoadSeed(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return seed, nil
}

// ApplySeed writes every SQL-backed section of the fixture. Documents are left to the caller.
func (r *Repository) ApplySeed(ctx context.Context, seed Seed) (SeedSummary, error) {
	var sum SeedSummary
	tenantIDs := map[string]string{}

	for _, t := range seed.Tenants {
		if t.ID == "" || t.Slug == "" {
			return sum, fmt.Errorf("seed tenant needs id and slug: %+v", t)
		}
		if err := r.UpsertTenant(ctx, t); err != nil {
			return sum, fmt.Errorf("tenant %s: %w", t.Slug, err)
		}
		tenantIDs[t.Slug] = t.ID
		sum.Tenants++
	}

	for _, chain := range sortedKeys(seed.GlobalDefaults) {
		if err := r.UpsertGlobalDefault(ctx, chain, normalize(seed.GlobalDefaults[chain])); err != nil {
			return sum, fmt.Errorf("global %s: %w", chain, err)
		}
		sum.ChainRows++
	}

	for _, slug := range sortedKeys(seed.TenantDefaults) {
		id, err := r.tenantID(ctx, tenantIDs, slug)
		if err != nil {
			return sum, err
		}
		chains := seed.TenantDefaults[slug]
		for _, chain := range sortedKeys(chains) {
			if err := r.UpsertTenantDefault(ctx, id, chain, normalize(chains[chain])); err != nil {
				return sum, fmt.Errorf("tenant default %s/%s: %w", slug, chain, err)
			}
			sum.ChainRows++
		}
	}

	for _, o := range seed.Overrides {
		id, err := r.tenantID(ctx, tenantIDs, o.Tenant)
		if err != nil {
			return sum, err
		}
		for _, chain := range sortedKeys(o.Chains) {
			if err := r.UpsertOverride(ctx, id, o.Casino, chain, normalize(o.Chains[chain])); err != nil {
				return sum, fmt.Errorf("override %s/%s/%s: %w", o.Tenant, o.Casino, chain, err)
			}
			sum.ChainRows++
		}
	}

	for _, res := range seed.Research {
		var tenantID string
		if res.Tenant != "" {
			id, err := r.tenantID(ctx, tenantIDs, res.Tenant)
			if err != nil {
				return sum, err
			}
			tenantID = id
		}
		rec := domain.ResearchRecord{
			TenantID:          tenantID,
			CasinoSlug:        res.Casino,
			Locale:            res.Locale,
			Facts:             normalize(res.Facts),
			Sources:           res.Sources,
			SERPIntent:        normalize(res.SERPIntent),
			SecondaryKeywords: res.SecondaryKeywords,
			UpdatedAt:         res.UpdatedAt,
		}
		if err := r.SaveResearch(ctx, rec); err != nil {
			return sum, fmt.Errorf("research %s/%s: %w", res.Casino, res.Locale, err)
		}
		sum.Research++
	}

	for _, tc := range seed.TopicClusters {
		if err := r.UpsertTopicCluster(ctx, tc.Casino, domain.TopicCluster{Name: tc.Name, Keywords: tc.Keywords}); err != nil {
			return sum, fmt.Errorf("topic cluster %s/%s: %w", tc.Casino, tc.Name, err)
		}
		sum.TopicClusters++
	}

	return sum, nil
}

func (r *Repository) tenantID(ctx context.Context, known map[string]string, slug string) (string, error) {
	if id, ok := known[slug]; ok {
		return id, nil
	}
	t, err := r.TenantBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	known[slug] = t.ID
	return t.ID, nil
}

// normalize converts yaml.v3 nested values so they encode as JSON objects.
func normalize(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalize(t)
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = normalizeValue(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = normalizeValue(child)
		}
		return out
	default:
		return v
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
