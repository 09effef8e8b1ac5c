package domain

import "time"

// RunRequest starts one pipeline execution.
type RunRequest struct {
	RunID          string
	TenantSlug     string
	CasinoSlug     string
	Locale         string
	DryRun         bool
	SkipCompliance bool
}

// Event is a timestamped pipeline milestone.
type Event struct {
	Name  string         `json:"event"`
	At    time.Time      `json:"timestamp"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// RunResult is the final output of a pipeline execution.
type RunResult struct {
	RunID            string           `json:"run_id"`
	Success          bool             `json:"success"`
	TenantSlug       string           `json:"tenant_slug"`
	CasinoSlug       string           `json:"casino_slug"`
	Locale           string           `json:"locale"`
	DryRun           bool             `json:"dry_run"`
	ResearchData     ResearchFact     `json:"research_data"`
	ContentDraft     GeneratedArticle `json:"content_draft"`
	SEOData          SEOData          `json:"seo_data"`
	MediaAssets      MediaBundle      `json:"media_assets"`
	PublishedURL     string           `json:"published_url"`
	WordPressPostID  int              `json:"wordpress_post_id"`
	ComplianceScore  float64          `json:"compliance_score"`
	ComplianceReport ComplianceReport `json:"compliance_scores"`
	TotalDurationMS  int64            `json:"total_duration_ms"`
	Events           []Event          `json:"events"`
	Error            string           `json:"error,omitempty"`
}

// RunRecord is the summary row written after publishing.
type RunRecord struct {
	RunID           string
	TenantSlug      string
	CasinoSlug      string
	Locale          string
	Success         bool
	DryRun          bool
	PublishedURL    string
	PostID          int
	ComplianceScore float64
	WordCount       int
	ImageCount      int
	DurationMS      int64
	CreatedAt       time.Time
}
