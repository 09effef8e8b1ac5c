package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source is a citation attached to stored research.
type Source struct {
	URL  string `json:"url" yaml:"url"`
	Date string `json:"date" yaml:"date"`
	Note string `json:"note" yaml:"note"`
}

// TopicCluster groups keywords the casino should rank for.
type TopicCluster struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// ResearchRecord is one stored research row.
type ResearchRecord struct {
	ID                string         `json:"id"`
	TenantID          string         `json:"tenant_id"`
	CasinoSlug        string         `json:"casino_slug"`
	Locale            string         `json:"locale"`
	Facts             map[string]any `json:"facts"`
	Sources           []Source       `json:"sources"`
	SERPIntent        map[string]any `json:"serp_intent"`
	SecondaryKeywords []string       `json:"secondary_keywords"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ResearchFact is what the research tool hands to the pipeline.
type ResearchFact struct {
	CasinoSlug        string         `json:"casino_slug"`
	Locale            string         `json:"locale"`
	Facts             map[string]any `json:"facts"`
	Sources           []Source       `json:"sources"`
	SERPIntent        map[string]any `json:"serp_intent"`
	SecondaryKeywords []string       `json:"secondary_keywords"`
	TopicClusters     []TopicCluster `json:"topic_clusters"`
	UpdatedAt         time.Time      `json:"updated_at"`
	TotalFields       int            `json:"total_fields"`
	Method            string         `json:"method"`
}

// Empty reports whether the casino has not been researched yet.
func (r ResearchFact) Empty() bool {
	return len(r.Facts) == 0
}

// Lookup walks a dotted path through the nested facts map.
func (r ResearchFact) Lookup(path string) (any, bool) {
	var cur any = r.Facts
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	if s, ok := cur.(string); ok && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return cur, true
}

// Text renders a fact as a string, or "" when absent.
func (r ResearchFact) Text(path string) string {
	v, ok := r.Lookup(path)
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// List returns a fact as a string slice.
func (r ResearchFact) List(path string) []string {
	v, ok := r.Lookup(path)
	if !ok {
		return nil
	}
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, FormatValue(item))
		}
		return out
	default:
		return []string{FormatValue(v)}
	}
}

// CasinoName falls back to "<Slug> Casino" when the fact is missing.
func (r ResearchFact) CasinoName() string {
	if name := r.Text("casino_name"); name != "" {
		return name
	}
	return DefaultCasinoName(r.CasinoSlug)
}

// DefaultCasinoName title-cases a slug and appends "Casino".
func DefaultCasinoName(slug string) string {
	parts := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ") + " Casino"
}

// FormatValue prints scalars without float noise.
func FormatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

// CountFields counts leaf values in nested maps and slices.
func CountFields(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case map[string]any:
		n := 0
		for _, child := range t {
			n += CountFields(child)
		}
		return n
	case []any:
		if len(t) == 0 {
			return 0
		}
		return 1
	case string:
		if strings.TrimSpace(t) == "" {
			return 0
		}
		return 1
	default:
		return 1
	}
}

// SearchHit is one web-search result.
type SearchHit struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
