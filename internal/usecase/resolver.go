package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"ccms/internal/domain"
	"ccms/internal/ports"
)

// ResolveRequest names the tenant, casino and chains to resolve.
// An empty Chains slice means every known chain.
type ResolveRequest struct {
	TenantSlug string
	CasinoSlug string
	Locale     string
	Chains     []string
}

// Resolution is the per-run configuration snapshot.
type Resolution struct {
	Tenant   domain.TenantConfig  `json:"tenant"`
	Merged   domain.MergedConfig  `json:"merged"`
	Settings domain.ChainSettings `json:"settings"`
}

// Resolver merges global defaults, tenant defaults and casino overrides.
type Resolver struct {
	store  ports.ConfigStore
	logger *zap.Logger
}

// NewResolver wires the config store.
func NewResolver(store ports.ConfigStore, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, logger: logger}
}

// Resolve builds the merged and typed configuration for one run.
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) (Resolution, error) {
	tenant, err := r.store.TenantBySlug(ctx, req.TenantSlug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Resolution{}, fmt.Errorf("%w: %s", domain.ErrTenantNotFound, req.TenantSlug)
		}
		return Resolution{}, fmt.Errorf("load tenant %s: %w", req.TenantSlug, err)
	}

	chains := req.Chains
	if len(chains) == 0 {
		chains = domain.KnownChains()
	}

	globals, err := r.store.GlobalDefaults(ctx, req.Chains)
	if err != nil {
		return Resolution{}, fmt.Errorf("load global defaults: %w", err)
	}
	tenantDefaults, err := r.store.TenantDefaults(ctx, tenant.ID, req.Chains)
	if err != nil {
		return Resolution{}, fmt.Errorf("load tenant defaults: %w", err)
	}
	var overrides []domain.ChainRow
	if req.CasinoSlug != "" {
		overrides, err = r.store.TenantOverrides(ctx, tenant.ID, req.CasinoSlug, req.Chains)
		if err != nil {
			return Resolution{}, fmt.Errorf("load overrides: %w", err)
		}
	}

	locale := req.Locale
	if locale == "" {
		locale = tenant.DefaultLocale
	}

	merged := MergeLayers(FallbackDefaults(chains), globals, tenantDefaults, overrides)
	// tenant_info is always present, whatever chains were requested.
	merged[domain.ChainTenantInfo] = tenantInfo(tenant, locale, merged.Chain(domain.ChainTenantInfo))

	settings, err := DecodeSettings(merged)
	if err != nil {
		return Resolution{}, err
	}

	r.logger.Debug("config resolved",
		zap.String("tenant", tenant.Slug),
		zap.String("casino", req.CasinoSlug),
		zap.Int("globals", len(globals)),
		zap.Int("tenant_defaults", len(tenantDefaults)),
		zap.Int("overrides", len(overrides)))

	return Resolution{
		Tenant: domain.TenantConfig{
			TenantID:       tenant.ID,
			Slug:           tenant.Slug,
			BrandName:      tenant.Name,
			Locale:         locale,
			VoiceProfile:   tenant.VoiceProfile,
			TargetAudience: tenant.TargetAudience,
			Jurisdiction:   tenant.Jurisdiction,
		},
		Merged:   merged,
		Settings: settings,
	}, nil
}

// MergeLayers applies layers from lowest to highest precedence. Within a chain,
// each top-level key of a higher layer replaces the lower value whole.
func MergeLayers(layers ...[]domain.ChainRow) domain.MergedConfig {
	merged := domain.MergedConfig{}
	for _, layer := range layers {
		for _, row := range layer {
			dst, ok := merged[row.Chain]
			if !ok {
				dst = map[string]any{}
				merged[row.Chain] = dst
			}
			for k, v := range row.Config {
				dst[k] = v
			}
		}
	}
	return merged
}

// DecodeSettings converts merged option maps into typed chain settings.
func DecodeSettings(merged domain.MergedConfig) (domain.ChainSettings, error) {
	var settings domain.ChainSettings
	input := make(map[string]any, len(merged))
	for name, opts := range merged {
		input[name] = opts
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &settings,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return settings, fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return settings, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if err := validateSettings(settings); err != nil {
		return settings, err
	}
	return settings, nil
}

func validateSettings(s domain.ChainSettings) error {
	var errs []error
	if s.Content.MinWordRatio < 0 || s.Content.MinWordRatio > 1 {
		errs = append(errs, fmt.Errorf("content.min_word_ratio must be within [0, 1], got %v", s.Content.MinWordRatio))
	}
	if s.SEO.TitleMaxLength < 0 || s.SEO.MetaDescriptionMaxLength < 0 {
		errs = append(errs, errors.New("seo length limits must not be negative"))
	}
	if s.Media.MaxImages < 0 {
		errs = append(errs, errors.New("media.max_images must not be negative"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, errors.Join(errs...))
}

func tenantInfo(tenant domain.Tenant, locale string, stored map[string]any) map[string]any {
	info := map[string]any{
		"name": tenant.Name,
		"brand_voice": map[string]any{
			"tone":     tenant.VoiceProfile,
			"style":    "informative",
			"audience": tenant.TargetAudience,
		},
	}
	for k, v := range stored {
		info[k] = v
	}
	info["tenant_id"] = tenant.ID
	info["locale"] = locale
	return info
}
