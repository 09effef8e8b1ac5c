package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccms/internal/domain"
)

func contentSettings(target int) domain.ContentSettings {
	return domain.ContentSettings{
		TargetWordCount: target,
		MinWordRatio:    0.6,
		IncludeProsCons: true,
		Sections:        defaultSections,
	}
}

func viageFact() domain.ResearchFact {
	return domain.ResearchFact{CasinoSlug: "viage", Locale: "en-GB", Facts: completeFacts()}
}

func TestGenerateSingleCall(t *testing.T) {
	llm := &scriptedLLM{replies: []string{articleMarkdown(20)}}
	g := NewGenerator(llm, nil)
	g.now = clock

	article, err := g.Generate(context.Background(), GenerateRequest{
		Tenant:   domain.TenantConfig{BrandName: "CrashCasino", Locale: "en-GB"},
		Voice:    domain.BrandVoice{Tone: "confident"},
		Facts:    viageFact(),
		Context:  domain.RetrievalResult{Documents: []domain.RetrievedDocument{{Content: "Viage launched in 2019."}}},
		Settings: contentSettings(200),
		Keywords: []string{"viage bonus"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, llm.calls())
	assert.False(t, article.Expanded)
	assert.Equal(t, "Viage Casino Review", article.Title)
	assert.Len(t, article.Sections, 9, "introduction plus eight sections")
	assert.Equal(t, "Introduction", article.Sections[0].Name)
	assert.Equal(t, fixedNow, article.GeneratedAt)

	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "## Licensing and Safety")
	assert.Contains(t, prompt, "MGA/B2C/123/2019")
	assert.Contains(t, prompt, "Viage launched in 2019.")
	assert.Contains(t, prompt, "viage bonus")
	assert.Contains(t, prompt, "confident")
}

func TestGenerateExpandsShortDraft(t *testing.T) {
	llm := &scriptedLLM{replies: []string{articleMarkdown(5), articleMarkdown(40)}}
	g := NewGenerator(llm, nil)

	article, err := g.Generate(context.Background(), GenerateRequest{Facts: viageFact(), Settings: contentSettings(400)})
	require.NoError(t, err)

	assert.Equal(t, 2, llm.calls(), "exactly one expansion")
	assert.True(t, article.Expanded)
	assert.Equal(t, domain.CountWords(articleMarkdown(40)), article.WordCount)
	assert.Contains(t, llm.prompts[1], "Expand it to at least 400 words")
}

func TestGenerateKeepsDraftWhenExpansionFails(t *testing.T) {
	llm := &scriptedLLM{replies: []string{articleMarkdown(5), "too short"}}
	g := NewGenerator(llm, nil)

	article, err := g.Generate(context.Background(), GenerateRequest{Facts: viageFact(), Settings: contentSettings(400)})
	require.NoError(t, err)
	assert.False(t, article.Expanded)
	assert.Equal(t, domain.CountWords(articleMarkdown(5)), article.WordCount)
}

func TestGenerateInsufficientResearch(t *testing.T) {
	llm := &scriptedLLM{}
	g := NewGenerator(llm, nil)

	_, err := g.Generate(context.Background(), GenerateRequest{Facts: FallbackFacts("nova", "en-GB"), Settings: contentSettings(200)})
	require.ErrorIs(t, err, domain.ErrInsufficientResearch)
	assert.Zero(t, llm.calls())
}

func TestGenerateLLMFailure(t *testing.T) {
	g := NewGenerator(&scriptedLLM{err: errors.New("upstream 500")}, nil)

	_, err := g.Generate(context.Background(), GenerateRequest{Facts: viageFact(), Settings: contentSettings(200)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream 500")
}

func TestParseArticle(t *testing.T) {
	title, sections := ParseArticle("# Title\nLead paragraph.\n\n## First\nbody one\n### Sub\nmore\n## Second\nbody two\n")
	assert.Equal(t, "Title", title)
	require.Len(t, sections, 3)
	assert.Equal(t, domain.Section{Name: "Introduction", Body: "Lead paragraph."}, sections[0])
	assert.Equal(t, "body one\n### Sub\nmore", sections[1].Body)
	assert.Equal(t, "Second", sections[2].Name)

	title, sections = ParseArticle("no headings at all")
	assert.Empty(t, title)
	require.Len(t, sections, 1)
	assert.Equal(t, "Introduction", sections[0].Name)
}
