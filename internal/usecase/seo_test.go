package usecase

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccms/internal/domain"
)

func seoSettings() domain.SEOSettings {
	return domain.SEOSettings{
		TitleMaxLength:           60,
		MetaDescriptionMaxLength: 158,
		CanonicalBase:            "https://crash.example/reviews/",
		InternalLinkBlocks:       []domain.InternalLink{{Anchor: "Best UK casinos", URL: "https://crash.example/best/"}},
	}
}

func TestBuildSEO(t *testing.T) {
	fact := viageFact()
	fact.SERPIntent = map[string]any{"primary_kw": "viage casino review uk", "secondary_kws": []any{"viage free spins"}}
	fact.SecondaryKeywords = []string{"viage bonus", "Viage Casino Review UK"}
	fact.TopicClusters = []domain.TopicCluster{{Name: "payments", Keywords: []string{"viage skrill", "viage paypal", "viage trustly", "viage visa"}}}

	data := BuildSEO(SEORequest{
		Tenant:   domain.TenantConfig{BrandName: "CrashCasino"},
		Facts:    fact,
		Settings: seoSettings(),
		Content:  domain.ContentSettings{AuthorName: "Jamie Reel"},
		Now:      fixedNow,
	})

	assert.Equal(t, "Viage Casino Review 2026 – 100% up to £200", data.Title)
	assert.Equal(t, "Viage Casino Review 2026", data.H1)
	assert.LessOrEqual(t, utf8.RuneCountInString(data.MetaDescription), 158)
	assert.Contains(t, data.MetaDescription, "Malta Gaming Authority")
	assert.Equal(t, "viage casino review uk", data.PrimaryKeyword)
	assert.Equal(t, []string{"viage bonus", "viage free spins", "viage skrill", "viage paypal", "viage trustly"}, data.SecondaryKeywords)
	assert.Equal(t, "https://crash.example/reviews/viage-review/", data.CanonicalURL)
	assert.Len(t, data.InternalLinks, 1)

	assert.Equal(t, [][2]string{
		{"Bonus Amount", "100% up to £200"},
		{"Wagering", "35x"},
		{"Min Deposit", "£20"},
		{"Validity", "30 days"},
	}, data.Tables.BonusTerms)
	require.Len(t, data.Tables.PaymentMethods, 5)
	assert.Equal(t, [2]string{"Visa", "Deposit"}, data.Tables.PaymentMethods[0])

	assert.Equal(t, "Review", data.JSONLD["@type"])
	assert.Equal(t, "2026-03-14", data.JSONLD["datePublished"])
	assert.Equal(t, map[string]any{"@type": "Person", "name": "Jamie Reel"}, data.JSONLD["author"])
	assert.Equal(t, data.CanonicalURL, data.JSONLD["url"])
}

func TestBuildSEOSparseFacts(t *testing.T) {
	data := BuildSEO(SEORequest{Facts: FallbackFacts("nova", "en-GB"), Settings: seoSettings(), Now: fixedNow})

	assert.Equal(t, "Nova Casino Review 2026 – Welcome Bonus Available", data.Title)
	assert.Equal(t, "nova casino review", data.PrimaryKeyword)
	assert.Empty(t, data.Tables.BonusTerms)
	assert.Empty(t, data.Tables.PaymentMethods)
	assert.Empty(t, data.SecondaryKeywords)
}

func TestTruncateWords(t *testing.T) {
	assert.Equal(t, "short", TruncateWords("short", 10))
	assert.Equal(t, "Viage Casino Review", TruncateWords("Viage Casino Review 2026", 21))
	assert.Equal(t, "Viage Casino Review 2026", TruncateWords("Viage Casino Review 2026 – Big Bonus", 26))
	assert.Equal(t, "Supercalifragi", TruncateWords("Supercalifragilistic", 14))
}
