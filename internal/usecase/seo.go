package usecase

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"ccms/internal/domain"
)

const (
	maxSecondaryKeywords = 5
	maxPaymentRows       = 5
	reviewRating         = "4.2"
	defaultAuthor        = "CCMS Editor"
)

// SEORequest carries the inputs of the SEO branch.
type SEORequest struct {
	Tenant   domain.TenantConfig
	Facts    domain.ResearchFact
	Article  domain.GeneratedArticle
	Settings domain.SEOSettings
	Content  domain.ContentSettings
	Now      time.Time
}

// BuildSEO derives titles, keywords, structured data and tables from facts and the article.
func BuildSEO(req SEORequest) domain.SEOData {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	year := now.Year()
	casino := req.Facts.CasinoName()

	bonus := req.Facts.Text("welcome_bonus.amount")
	if bonus == "" {
		bonus = "Welcome Bonus Available"
	}

	title := fmt.Sprintf("%s Review %d – %s", casino, year, bonus)
	if req.Settings.TitleMaxLength > 0 {
		title = TruncateWords(title, req.Settings.TitleMaxLength)
	}

	description := metaDescription(req.Facts, casino, year)
	if req.Settings.MetaDescriptionMaxLength > 0 {
		description = TruncateWords(description, req.Settings.MetaDescriptionMaxLength)
	}

	primary := strings.ToLower(casino) + " review"
	if kw, ok := req.Facts.SERPIntent["primary_kw"].(string); ok && strings.TrimSpace(kw) != "" {
		primary = strings.TrimSpace(kw)
	}

	author := req.Content.AuthorName
	if author == "" {
		author = defaultAuthor
	}

	data := domain.SEOData{
		Title:             title,
		MetaDescription:   description,
		H1:                fmt.Sprintf("%s Review %d", casino, year),
		PrimaryKeyword:    primary,
		SecondaryKeywords: secondaryKeywords(req.Facts, primary),
		InternalLinks:     req.Settings.InternalLinkBlocks,
		Tables: domain.SEOTables{
			BonusTerms:     bonusTermsTable(req.Facts),
			PaymentMethods: paymentMethodsTable(req.Facts),
		},
	}
	if req.Settings.CanonicalBase != "" {
		data.CanonicalURL = strings.TrimRight(req.Settings.CanonicalBase, "/") + "/" + req.Facts.CasinoSlug + "-review/"
	}
	data.JSONLD = reviewJSONLD(casino, author, req.Tenant.BrandName, data, now)
	return data
}

// TruncateWords cuts s to at most limit runes, backing off to the last word boundary.
func TruncateWords(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := runes[:limit]
	if !unicode.IsSpace(runes[limit]) {
		if i := lastSpace(cut); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || r == '–' || r == '-' || r == ',' || r == ':'
	})
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}

func metaDescription(f domain.ResearchFact, casino string, year int) string {
	parts := []string{fmt.Sprintf("Our %d %s review", year, casino)}
	if license := f.Text("license.primary"); license != "" {
		parts = append(parts, "licensed by "+license)
	}
	if bonus := f.Text("welcome_bonus.amount"); bonus != "" {
		parts = append(parts, "welcome bonus "+bonus)
	}
	if wagering := f.Text("welcome_bonus.wagering_requirement"); wagering != "" {
		parts = append(parts, wagering+" wagering")
	}
	return strings.Join(parts, ", ") + ". Games, payments, support and our verdict."
}

func secondaryKeywords(f domain.ResearchFact, primary string) []string {
	seen := map[string]struct{}{strings.ToLower(primary): {}}
	var out []string
	add := func(kw string) {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if kw == "" || len(out) >= maxSecondaryKeywords {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	for _, kw := range f.SecondaryKeywords {
		add(kw)
	}
	if list, ok := f.SERPIntent["secondary_kws"].([]any); ok {
		for _, kw := range list {
			add(domain.FormatValue(kw))
		}
	}
	for _, cluster := range f.TopicClusters {
		for _, kw := range cluster.Keywords {
			add(kw)
		}
	}
	return out
}

func bonusTermsTable(f domain.ResearchFact) [][2]string {
	rows := [][2]string{
		{"Bonus Amount", f.Text("welcome_bonus.amount")},
		{"Wagering", f.Text("welcome_bonus.wagering_requirement")},
		{"Min Deposit", f.Text("welcome_bonus.min_deposit")},
		{"Validity", f.Text("welcome_bonus.validity")},
	}
	out := rows[:0]
	for _, row := range rows {
		if row[1] != "" {
			out = append(out, row)
		}
	}
	return out
}

func paymentMethodsTable(f domain.ResearchFact) [][2]string {
	methods := f.List("payments.deposit_methods")
	if len(methods) > maxPaymentRows {
		methods = methods[:maxPaymentRows]
	}
	rows := make([][2]string, 0, len(methods))
	for _, m := range methods {
		rows = append(rows, [2]string{m, "Deposit"})
	}
	return rows
}

func reviewJSONLD(casino, author, publisher string, data domain.SEOData, now time.Time) map[string]any {
	ld := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Review",
		"name":     data.Title,
		"itemReviewed": map[string]any{
			"@type": "Organization",
			"name":  casino,
		},
		"reviewRating": map[string]any{
			"@type":       "Rating",
			"ratingValue": reviewRating,
			"bestRating":  "5",
		},
		"author": map[string]any{
			"@type": "Person",
			"name":  author,
		},
		"publisher": map[string]any{
			"@type": "Organization",
			"name":  publisher,
		},
		"datePublished": now.UTC().Format("2006-01-02"),
	}
	if data.CanonicalURL != "" {
		ld["url"] = data.CanonicalURL
	}
	return ld
}
