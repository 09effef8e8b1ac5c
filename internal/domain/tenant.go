package domain

import "sort"

// Chain names a bucket of related options in the configuration hierarchy.
type Chain = string

const (
	ChainCompliance Chain = "compliance"
	ChainMedia      Chain = "media"
	ChainSEO        Chain = "seo"
	ChainContent    Chain = "content"
	ChainResearch   Chain = "research"
	ChainPublish    Chain = "publish"
	ChainTenantInfo Chain = "tenant_info"
)

// KnownChains lists every chain the pipeline consumes.
func KnownChains() []string {
	return []string{
		ChainCompliance,
		ChainMedia,
		ChainSEO,
		ChainContent,
		ChainResearch,
		ChainPublish,
		ChainTenantInfo,
	}
}

// Tenant is the stored tenant record.
type Tenant struct {
	ID             string `json:"id" yaml:"id"`
	Slug           string `json:"slug" yaml:"slug"`
	Name           string `json:"name" yaml:"name"`
	DefaultLocale  string `json:"default_locale" yaml:"default_locale"`
	VoiceProfile   string `json:"voice_profile" yaml:"voice_profile"`
	TargetAudience string `json:"target_audience" yaml:"target_audience"`
	Jurisdiction   string `json:"jurisdiction" yaml:"jurisdiction"`
}

// TenantConfig identifies the tenant a run is executed for.
type TenantConfig struct {
	TenantID       string `json:"tenant_id"`
	Slug           string `json:"slug"`
	BrandName      string `json:"brand_name"`
	Locale         string `json:"locale"`
	VoiceProfile   string `json:"voice_profile"`
	TargetAudience string `json:"target_audience"`
	Jurisdiction   string `json:"jurisdiction"`
}

// ConfigLayer tags where a chain row comes from.
type ConfigLayer string

const (
	LayerGlobal   ConfigLayer = "global_default"
	LayerTenant   ConfigLayer = "tenant_default"
	LayerOverride ConfigLayer = "override"
)

// ChainRow is one stored chain config at a single layer.
type ChainRow struct {
	Chain  string         `json:"chain"`
	Config map[string]any `json:"config"`
}

// MergedConfig maps chain names to their resolved option maps.
type MergedConfig map[string]map[string]any

// Chain returns the options for a chain, never nil.
func (m MergedConfig) Chain(name string) map[string]any {
	if opts, ok := m[name]; ok && opts != nil {
		return opts
	}
	return map[string]any{}
}

// Names returns chain names in stable order.
func (m MergedConfig) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
