package usecase

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccms/internal/domain"
)

func TestResolvePrecedence(t *testing.T) {
	store := newConfigStore()
	store.globals = append(store.globals, domain.ChainRow{
		Chain:  domain.ChainMedia,
		Config: map[string]any{"max_images": 4, "search_query": "{casino} lobby"},
	})
	store.tenantDef["t-crash"] = []domain.ChainRow{
		{Chain: domain.ChainMedia, Config: map[string]any{"max_images": 3}},
		{Chain: domain.ChainPublish, Config: map[string]any{"affiliate_url": "https://go.crash.example/"}},
	}
	store.overrides["t-crash/viage"] = []domain.ChainRow{
		{Chain: domain.ChainMedia, Config: map[string]any{"max_images": 2}},
	}

	res, err := NewResolver(store, nil).Resolve(context.Background(), ResolveRequest{TenantSlug: "crashcasino", CasinoSlug: "viage"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Settings.Media.MaxImages, "override wins")
	assert.Equal(t, "{casino} lobby", res.Settings.Media.SearchQuery, "global wins over fallback")
	assert.Equal(t, 10240, res.Settings.Media.MinImageBytes, "fallback fills the gap")
	assert.Equal(t, "https://go.crash.example/", res.Settings.Publish.AffiliateURL)
	assert.Equal(t, 200, res.Settings.Content.TargetWordCount)
	assert.Equal(t, "en-GB", res.Tenant.Locale)
	assert.Equal(t, "CrashCasino", res.Tenant.BrandName)
}

func TestResolveWithoutCasinoSkipsOverrides(t *testing.T) {
	store := newConfigStore()
	store.overrides["t-crash/viage"] = []domain.ChainRow{
		{Chain: domain.ChainMedia, Config: map[string]any{"max_images": 1}},
	}

	res, err := NewResolver(store, nil).Resolve(context.Background(), ResolveRequest{TenantSlug: "crashcasino"})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Settings.Media.MaxImages)
}

func TestResolveUnknownTenant(t *testing.T) {
	_, err := NewResolver(newConfigStore(), nil).Resolve(context.Background(), ResolveRequest{TenantSlug: "nobody"})
	require.ErrorIs(t, err, domain.ErrTenantNotFound)
	assert.Contains(t, err.Error(), "nobody")
}

func TestResolveRejectsWrongShape(t *testing.T) {
	store := newConfigStore()
	store.tenantDef["t-crash"] = []domain.ChainRow{
		{Chain: domain.ChainMedia, Config: map[string]any{"max_images": map[string]any{"value": 3}}},
	}

	_, err := NewResolver(store, nil).Resolve(context.Background(), ResolveRequest{TenantSlug: "crashcasino"})
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestResolveRejectsOutOfRangeRatio(t *testing.T) {
	store := newConfigStore()
	store.tenantDef["t-crash"] = []domain.ChainRow{
		{Chain: domain.ChainContent, Config: map[string]any{"min_word_ratio": 1.5}},
	}

	_, err := NewResolver(store, nil).Resolve(context.Background(), ResolveRequest{TenantSlug: "crashcasino"})
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "min_word_ratio")
}

func TestResolveTenantInfo(t *testing.T) {
	store := newConfigStore()
	store.tenantDef["t-crash"] = []domain.ChainRow{
		{Chain: domain.ChainTenantInfo, Config: map[string]any{
			"tenant_id":   "spoofed",
			"brand_voice": map[string]any{"tone": "playful", "style": "punchy", "audience": "UK players"},
		}},
	}

	res, err := NewResolver(store, nil).Resolve(context.Background(), ResolveRequest{TenantSlug: "crashcasino", Locale: "en-IE"})
	require.NoError(t, err)

	info := res.Settings.TenantInfo
	assert.Equal(t, "t-crash", info.TenantID, "tenant id comes from the record")
	assert.Equal(t, "en-IE", info.Locale)
	assert.Equal(t, "CrashCasino", info.Name)
	assert.Equal(t, "playful", info.BrandVoice.Tone)
	assert.Equal(t, "en-IE", res.Tenant.Locale)
}

func TestResolveChainSubset(t *testing.T) {
	res, err := NewResolver(newConfigStore(), nil).Resolve(context.Background(), ResolveRequest{
		TenantSlug: "crashcasino",
		Chains:     []string{domain.ChainSEO},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{domain.ChainSEO, domain.ChainTenantInfo}, res.Merged.Names())
	assert.Equal(t, "t-crash", res.Settings.TenantInfo.TenantID, "tenant_info is filled for any subset")
	assert.Equal(t, "en-IE", res.Settings.TenantInfo.Locale)
	assert.Equal(t, 60, res.Settings.SEO.TitleMaxLength)
	assert.Zero(t, res.Settings.Content.TargetWordCount)
}

func TestMergeLayersReplacesTopLevelKeys(t *testing.T) {
	low := []domain.ChainRow{{Chain: "media", Config: map[string]any{
		"retries":    map[string]any{"attempts": 3, "base_ms": 500},
		"max_images": 6,
	}}}
	high := []domain.ChainRow{{Chain: "media", Config: map[string]any{
		"retries": map[string]any{"attempts": 5},
	}}}

	got := MergeLayers(low, nil, high)
	want := domain.MergedConfig{"media": {
		"retries":    map[string]any{"attempts": 5},
		"max_images": 6,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, low[0].Config["max_images"], "inputs are not mutated")
	assert.Len(t, low[0].Config["retries"], 2)
}
