package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccms/internal/domain"
)

type pipelineFixture struct {
	research  *fakeResearchStore
	llm       *scriptedLLM
	publisher *fakePublisher
	recorder  *fakeRecorder
	searcher  *fakeSearcher
	pipeline  *Pipeline
}

func newPipelineFixture(facts map[string]any) *pipelineFixture {
	f := &pipelineFixture{
		research:  storeWithFacts(facts),
		llm:       &scriptedLLM{replies: []string{articleMarkdown(20)}},
		publisher: &fakePublisher{result: domain.PublishResult{Success: true, PostID: 42, URL: "https://crash.example/viage-review/", Attempts: 1}},
		recorder:  &fakeRecorder{},
	}
	retriever := newTestRetriever(&fakeVectorStore{}, f.llm)
	generator := NewGenerator(f.llm, nil)
	generator.now = clock

	f.pipeline = NewPipeline(PipelineDeps{
		Resolver:  NewResolver(newConfigStore(), nil),
		Research:  NewResearcher(ResearchDeps{Store: f.research, Retriever: retriever, Now: clock}),
		Retriever: retriever,
		Generator: generator,
		Media: NewMediaCollector(MediaDeps{
			Finder:  fakeFinder{urls: []string{"https://img.example/1.jpg", "https://img.example/2.jpg"}},
			Fetcher: fakeFetcher{},
		}),
		Publisher: f.publisher,
		Runs:      f.recorder,
		Now:       clock,
	})
	return f
}

func eventNames(r domain.RunResult) []string {
	names := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		names = append(names, e.Name)
	}
	return names
}

func TestPipelineDryRun(t *testing.T) {
	f := newPipelineFixture(completeFacts())

	result, err := f.pipeline.Run(context.Background(), domain.RunRequest{TenantSlug: "crashcasino", CasinoSlug: "viage", DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "en-GB", result.Locale)
	assert.Equal(t, 99999, result.WordPressPostID)
	assert.Contains(t, result.PublishedURL, "dry-run")
	assert.Equal(t, "https://example.com/dry-run/viage-review", result.PublishedURL)
	assert.Equal(t, 1.0, result.ComplianceScore)
	assert.Equal(t, 2, result.MediaAssets.Total())
	assert.Equal(t, "database", result.ResearchData.Method)
	assert.Equal(t, "Viage Casino Review", result.ContentDraft.Title)
	assert.True(t, strings.HasPrefix(result.SEOData.Title, "Viage Casino Review 2026"))

	assert.Empty(t, f.publisher.uploads, "dry run touches no CMS")
	assert.Empty(t, f.publisher.published)
	require.Len(t, f.recorder.records, 1)
	assert.True(t, f.recorder.records[0].DryRun)
	assert.Equal(t, 99999, f.recorder.records[0].PostID)

	names := eventNames(result)
	assert.Equal(t, "run_started", names[0])
	assert.Contains(t, names, "publish_dry_run")
	assert.Contains(t, names, "run_finished")
	assert.NotContains(t, names, "research_collected")
}

func TestPipelineComplianceBlocks(t *testing.T) {
	facts := completeFacts()
	delete(facts, "license")
	f := newPipelineFixture(facts)

	result, err := f.pipeline.Run(context.Background(), domain.RunRequest{TenantSlug: "crashcasino", CasinoSlug: "viage"})
	require.Error(t, err)

	var ce *domain.ComplianceError
	require.ErrorAs(t, err, &ce)
	assert.True(t, IsComplianceError(err))
	assert.Equal(t, []string{"LICENSE_MISSING"}, issueCodes(ce.Report.Blocking()))
	assert.False(t, result.Success)
	assert.Zero(t, result.WordPressPostID)
	assert.Empty(t, f.publisher.uploads)
	assert.Empty(t, f.publisher.published, "publisher is never called")
	assert.Empty(t, f.recorder.records)
	assert.Contains(t, eventNames(result), "run_failed")
}

func TestPipelineSkipCompliance(t *testing.T) {
	facts := completeFacts()
	delete(facts, "license")
	f := newPipelineFixture(facts)

	result, err := f.pipeline.Run(context.Background(), domain.RunRequest{
		TenantSlug:     "crashcasino",
		CasinoSlug:     "viage",
		DryRun:         true,
		SkipCompliance: true,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.ComplianceReport.Bypassed)
	assert.Less(t, result.ComplianceScore, 1.0)
	assert.Contains(t, eventNames(result), "compliance_bypassed")
}

func TestPipelinePublishes(t *testing.T) {
	f := newPipelineFixture(completeFacts())

	result, err := f.pipeline.Run(context.Background(), domain.RunRequest{TenantSlug: "crashcasino", CasinoSlug: "viage", Locale: "en-GB"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 42, result.WordPressPostID)
	assert.Equal(t, "https://crash.example/viage-review/", result.PublishedURL)

	require.Len(t, f.publisher.uploads, 2)
	assert.Equal(t, "Viage Casino screenshot 1", f.publisher.uploads[0].AltText)
	assert.Equal(t, 3, f.publisher.uploads[0].Retry.Attempts)

	require.Len(t, f.publisher.published, 1)
	post := f.publisher.published[0]
	assert.Equal(t, 101, post.FeaturedMedia)
	assert.Equal(t, "draft", post.Status)
	assert.Contains(t, post.HTML, "https://crash.example/uploads/viage_1.jpg")
	assert.Equal(t, result.SEOData.Title, post.Meta["rank_math_title"])
	assert.Equal(t, "MGA/B2C/123/2019", post.ACF["license_number"])
	assert.Equal(t, 1000, post.Retry.BaseMS)

	assert.Equal(t, 101, result.MediaAssets.Assets[0].MediaID)
	require.Len(t, f.recorder.records, 1)
	assert.True(t, f.recorder.records[0].Success)
	assert.Equal(t, 2, f.recorder.records[0].ImageCount)
}

func TestPipelinePublishFailure(t *testing.T) {
	f := newPipelineFixture(completeFacts())
	f.publisher.result = domain.PublishResult{StatusCode: 503, StatusText: "Service Unavailable", Attempts: 3, Error: "503 Service Unavailable"}
	f.publisher.failMedia = true

	result, err := f.pipeline.Run(context.Background(), domain.RunRequest{TenantSlug: "crashcasino", CasinoSlug: "viage"})
	require.ErrorIs(t, err, domain.ErrPublishFailed)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "503")
	assert.Zero(t, f.publisher.published[0].FeaturedMedia, "failed uploads give no featured image")
	names := eventNames(result)
	assert.Contains(t, names, "media_upload_failed")
	assert.Contains(t, names, "publish_failed")
	require.Len(t, f.recorder.records, 1)
	assert.False(t, f.recorder.records[0].Success)
}

func TestPipelineUnknownTenant(t *testing.T) {
	f := newPipelineFixture(completeFacts())

	result, err := f.pipeline.Run(context.Background(), domain.RunRequest{TenantSlug: "ghost", CasinoSlug: "viage", DryRun: true})
	require.ErrorIs(t, err, domain.ErrTenantNotFound)
	assert.False(t, result.Success)
	assert.Zero(t, f.llm.calls())
}

func TestPipelineFallsBackWhenResearchMissing(t *testing.T) {
	f := newPipelineFixture(completeFacts())
	f.pipeline.research = NewResearcher(ResearchDeps{Store: &fakeResearchStore{}})

	result, err := f.pipeline.Run(context.Background(), domain.RunRequest{TenantSlug: "crashcasino", CasinoSlug: "nova", DryRun: true})
	require.ErrorIs(t, err, domain.ErrInsufficientResearch)
	assert.Equal(t, "fallback", result.ResearchData.Method)
	assert.Contains(t, eventNames(result), "research_fallback")
}

func TestPipelineCollectsThinResearch(t *testing.T) {
	f := newPipelineFixture(map[string]any{"casino_name": "Viage Casino"})
	f.searcher = &fakeSearcher{hits: []domain.SearchHit{{Title: "Viage", URL: "https://news.example/viage", Content: "Viage is licensed by the MGA."}}}
	f.llm.replies = []string{
		`{"license": {"primary": "Malta Gaming Authority", "license_number": "MGA/B2C/123/2019"}, "welcome_bonus": {"amount": "100%", "wagering_requirement": "35x"}}`,
		articleMarkdown(20),
	}
	f.pipeline.research = NewResearcher(ResearchDeps{Store: f.research, Searcher: f.searcher, LLM: f.llm, Now: clock})

	result, err := f.pipeline.Run(context.Background(), domain.RunRequest{TenantSlug: "crashcasino", CasinoSlug: "viage", DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, "web_research", result.ResearchData.Method)
	assert.Contains(t, eventNames(result), "research_collected")
	require.Len(t, f.research.saved, 1)
	assert.Len(t, f.searcher.queries, 5, "every configured query template runs")
}

func TestPipelineCancelled(t *testing.T) {
	f := newPipelineFixture(completeFacts())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.Run(ctx, domain.RunRequest{TenantSlug: "crashcasino", CasinoSlug: "viage", DryRun: true})
	require.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, f.llm.calls())
}
