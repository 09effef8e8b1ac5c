package domain

import (
	"strings"
	"time"
)

// GeneratedArticle is the long-form review produced once per run.
type GeneratedArticle struct {
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Sections    []Section `json:"sections,omitempty"`
	WordCount   int       `json:"word_count"`
	GeneratedAt time.Time `json:"generated_at"`
	Expanded    bool      `json:"expanded"`
}

// Section is one headed block of the article body.
type Section struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// Section returns the body of the named section, or "" when absent.
func (a GeneratedArticle) Section(name string) string {
	for _, s := range a.Sections {
		if s.Name == name {
			return s.Body
		}
	}
	return ""
}

// CountWords mirrors a whitespace split.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// SEOData holds metadata and structured data attached to the post.
type SEOData struct {
	Title             string         `json:"title"`
	MetaDescription   string         `json:"meta_description"`
	H1                string         `json:"h1"`
	PrimaryKeyword    string         `json:"primary_kw"`
	SecondaryKeywords []string       `json:"secondary_kws"`
	JSONLD            map[string]any `json:"jsonld"`
	InternalLinks     []InternalLink `json:"internal_links"`
	CanonicalURL      string         `json:"canonical_url,omitempty"`
	Tables            SEOTables      `json:"tables"`
}

// SEOTables are two-column rows rendered into the post body.
type SEOTables struct {
	BonusTerms     [][2]string `json:"bonus_terms"`
	PaymentMethods [][2]string `json:"payment_methods"`
}

// MediaAsset is a downloaded image plus where it ended up.
type MediaAsset struct {
	SourceURL   string `json:"source_url"`
	Filename    string `json:"filename"`
	Path        string `json:"path,omitempty"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Alt         string `json:"alt"`
	Caption     string `json:"caption"`
	MediaID     int    `json:"media_id,omitempty"`
	MediaURL    string `json:"media_url,omitempty"`
	ArchiveKey  string `json:"archive_key,omitempty"`
	Data        []byte `json:"-"`
}

// MediaBundle groups the images collected for one casino.
type MediaBundle struct {
	Assets []MediaAsset `json:"images"`
	Method string       `json:"method"`
	Errors []string     `json:"errors,omitempty"`
}

// Total returns the number of collected images.
func (b MediaBundle) Total() int {
	return len(b.Assets)
}
