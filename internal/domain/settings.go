package domain

import "time"

// ChainSettings is the typed view of a MergedConfig.
type ChainSettings struct {
	Compliance ComplianceSettings `mapstructure:"compliance" json:"compliance"`
	Media      MediaSettings      `mapstructure:"media" json:"media"`
	SEO        SEOSettings        `mapstructure:"seo" json:"seo"`
	Content    ContentSettings    `mapstructure:"content" json:"content"`
	Research   ResearchSettings   `mapstructure:"research" json:"research"`
	Publish    PublishSettings    `mapstructure:"publish" json:"publish"`
	TenantInfo TenantInfoSettings `mapstructure:"tenant_info" json:"tenant_info"`
}

// RetrySettings configures backoff for an external call.
type RetrySettings struct {
	Attempts int `mapstructure:"attempts" json:"attempts"`
	BaseMS   int `mapstructure:"base_ms" json:"base_ms"`
}

// BaseDelay converts BaseMS to a duration.
func (r RetrySettings) BaseDelay() time.Duration {
	return time.Duration(r.BaseMS) * time.Millisecond
}

type ComplianceSettings struct {
	Retries        RetrySettings `mapstructure:"retries" json:"retries"`
	FailFast       bool          `mapstructure:"fail_fast" json:"fail_fast"`
	RequiredChecks []string      `mapstructure:"required_checks" json:"required_checks"`
	AgeNotice      string        `mapstructure:"age_notice" json:"age_notice"`
	RGLinks        []string      `mapstructure:"rg_links" json:"rg_links"`

	AffiliateDisclosure string `mapstructure:"affiliate_disclosure" json:"affiliate_disclosure"`
}

// Requires reports whether a named check is enabled.
func (c ComplianceSettings) Requires(check string) bool {
	for _, name := range c.RequiredChecks {
		if name == check {
			return true
		}
	}
	return false
}

type MediaSettings struct {
	Screenshot     bool          `mapstructure:"screenshot" json:"screenshot"`
	ResizeVariants []int         `mapstructure:"resize_variants" json:"resize_variants"`
	Retries        RetrySettings `mapstructure:"retries" json:"retries"`
	MaxImages      int           `mapstructure:"max_images" json:"max_images"`
	MinImageBytes  int           `mapstructure:"min_image_bytes" json:"min_image_bytes"`
	SearchQuery    string        `mapstructure:"search_query" json:"search_query"`
}

type SEOSettings struct {
	TitleMaxLength           int            `mapstructure:"title_max_length" json:"title_max_length"`
	MetaDescriptionMaxLength int            `mapstructure:"meta_description_max_length" json:"meta_description_max_length"`
	InjectSecondaryKeywords  bool           `mapstructure:"inject_secondary_keywords" json:"inject_secondary_keywords"`
	SchemaTypes              []string       `mapstructure:"schema_types" json:"schema_types"`
	InternalLinkBlocks       []InternalLink `mapstructure:"internal_link_blocks" json:"internal_link_blocks"`
	CanonicalBase            string         `mapstructure:"canonical_base" json:"canonical_base"`
}

// InternalLink is an anchor rendered into the related-reading block.
type InternalLink struct {
	Anchor string `mapstructure:"anchor" json:"anchor"`
	URL    string `mapstructure:"url" json:"url"`
}

type ContentSettings struct {
	TargetWordCount         int      `mapstructure:"target_word_count" json:"target_word_count"`
	MinWordRatio            float64  `mapstructure:"min_word_ratio" json:"min_word_ratio"`
	IncludeComparisonTables bool     `mapstructure:"include_comparison_tables" json:"include_comparison_tables"`
	IncludeProsCons         bool     `mapstructure:"include_pros_cons" json:"include_pros_cons"`
	AuthorName              string   `mapstructure:"author_name" json:"author_name"`
	Sections                []string `mapstructure:"sections" json:"sections"`
}

// MinWords is the word count below which an expansion call is issued.
func (c ContentSettings) MinWords() int {
	return int(float64(c.TargetWordCount) * c.MinWordRatio)
}

type ResearchSettings struct {
	MinFields           int      `mapstructure:"min_fields" json:"min_fields"`
	Queries             []string `mapstructure:"queries" json:"queries"`
	MaxResults          int      `mapstructure:"max_results" json:"max_results"`
	RetrievalType       string   `mapstructure:"retrieval_type" json:"retrieval_type"`
	RetrievalLimit      int      `mapstructure:"retrieval_limit" json:"retrieval_limit"`
	SimilarityThreshold float64  `mapstructure:"similarity_threshold" json:"similarity_threshold"`
}

type PublishSettings struct {
	DefaultStatus string        `mapstructure:"default_status" json:"default_status"`
	Retries       RetrySettings `mapstructure:"retries" json:"retries"`
	AffiliateURL  string        `mapstructure:"affiliate_url" json:"affiliate_url"`
	CTALabel      string        `mapstructure:"cta_label" json:"cta_label"`
}

// BrandVoice describes how a tenant sounds.
type BrandVoice struct {
	Tone     string `mapstructure:"tone" json:"tone"`
	Style    string `mapstructure:"style" json:"style"`
	Audience string `mapstructure:"audience" json:"audience"`
}

type TenantInfoSettings struct {
	TenantID   string     `mapstructure:"tenant_id" json:"tenant_id"`
	Name       string     `mapstructure:"name" json:"name"`
	Locale     string     `mapstructure:"locale" json:"locale"`
	BrandVoice BrandVoice `mapstructure:"brand_voice" json:"brand_voice"`
}
