package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ccms/internal/domain"
	"ccms/internal/ports"
)

const (
	dryRunPostID = 99999
	dryRunURL    = "https://example.com/dry-run/%s-review"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Resolver  *Resolver
	Research  *Researcher
	Retriever *Retriever
	Generator *Generator
	Media     *MediaCollector
	Publisher ports.Publisher
	Runs      ports.RunRecorder
	Logger    *zap.Logger
	Now       func() time.Time
}

// Pipeline implements the research -> generate -> publish workflow for one casino.
type Pipeline struct {
	resolver  *Resolver
	research  *Researcher
	retriever *Retriever
	generator *Generator
	media     *MediaCollector
	publisher ports.Publisher
	runs      ports.RunRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Pipeline{
		resolver:  deps.Resolver,
		research:  deps.Research,
		retriever: deps.Retriever,
		generator: deps.Generator,
		media:     deps.Media,
		publisher: deps.Publisher,
		runs:      deps.Runs,
		logger:    deps.Logger,
		now:       deps.Now,
	}
}

type runState struct {
	result domain.RunResult
	start  time.Time
	now    func() time.Time
	logger *zap.Logger
}

func (s *runState) emit(name string, attrs map[string]any) {
	s.result.Events = append(s.result.Events, domain.Event{Name: name, At: s.now().UTC(), Attrs: attrs})
	fields := make([]zap.Field, 0, len(attrs)+1)
	fields = append(fields, zap.String("event", name))
	for k, v := range attrs {
		fields = append(fields, zap.Any(k, v))
	}
	s.logger.Debug("pipeline event", fields...)
}

func (s *runState) fail(err error) (domain.RunResult, error) {
	s.result.Error = err.Error()
	s.result.Success = false
	s.result.TotalDurationMS = s.now().Sub(s.start).Milliseconds()
	s.emit("run_failed", map[string]any{"error": err.Error()})
	return s.result, err
}

// Run executes the full pipeline for one tenant and casino.
func (p *Pipeline) Run(ctx context.Context, req domain.RunRequest) (domain.RunResult, error) {
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := p.logger.With(zap.String("run_id", runID), zap.String("tenant", req.TenantSlug), zap.String("casino", req.CasinoSlug))
	state := &runState{
		start:  p.now(),
		now:    p.now,
		logger: logger,
		result: domain.RunResult{
			RunID:      runID,
			TenantSlug: req.TenantSlug,
			CasinoSlug: req.CasinoSlug,
			Locale:     req.Locale,
			DryRun:     req.DryRun,
		},
	}
	state.emit("run_started", map[string]any{"dry_run": req.DryRun, "skip_compliance": req.SkipCompliance})

	res, err := p.resolver.Resolve(ctx, ResolveRequest{TenantSlug: req.TenantSlug, CasinoSlug: req.CasinoSlug, Locale: req.Locale})
	if err != nil {
		return state.fail(fmt.Errorf("resolve config: %w", err))
	}
	settings := res.Settings
	locale := res.Tenant.Locale
	state.result.Locale = locale
	state.emit("config_resolved", map[string]any{"chains": res.Merged.Names()})

	fact, err := p.gatherResearch(ctx, state, res, req.CasinoSlug, locale)
	if err != nil {
		return state.fail(err)
	}
	state.result.ResearchData = fact

	casino := fact.CasinoName()
	retrieved := p.retriever.Retrieve(ctx, RetrievalRequest{
		Query:               casino + " review",
		TenantID:            res.Tenant.TenantID,
		Brand:               res.Tenant.BrandName,
		Locale:              locale,
		Voice:               res.Tenant.VoiceProfile,
		Limit:               settings.Research.RetrievalLimit,
		SimilarityThreshold: settings.Research.SimilarityThreshold,
		Type:                domain.RetrievalType(settings.Research.RetrievalType),
	})
	state.emit("retrieval_done", map[string]any{
		"documents": retrieved.Stats.TotalDocuments,
		"type":      string(retrieved.QueryMetadata.RetrievalType),
		"error":     retrieved.QueryMetadata.Error,
	})
	if err := ctx.Err(); err != nil {
		return state.fail(err)
	}

	article, err := p.generator.Generate(ctx, GenerateRequest{
		Tenant:   res.Tenant,
		Voice:    settings.TenantInfo.BrandVoice,
		Facts:    fact,
		Context:  retrieved,
		Settings: settings.Content,
		Keywords: fact.SecondaryKeywords,
	})
	if err != nil {
		return state.fail(fmt.Errorf("generate content: %w", err))
	}
	state.result.ContentDraft = article
	state.emit("content_generated", map[string]any{"word_count": article.WordCount, "expanded": article.Expanded})

	seo, bundle, err := p.seoAndMedia(ctx, res, fact, article)
	if err != nil {
		return state.fail(err)
	}
	state.result.SEOData = seo
	state.emit("seo_built", map[string]any{"title": seo.Title, "primary_kw": seo.PrimaryKeyword})
	state.emit("media_collected", map[string]any{"images": bundle.Total(), "method": bundle.Method})
	for _, msg := range bundle.Errors {
		state.emit("media_error", map[string]any{"error": msg})
	}

	render := RenderInput{
		Article:    article,
		SEO:        seo,
		Media:      bundle,
		Facts:      fact,
		Compliance: settings.Compliance,
		Publish:    settings.Publish,
		Content:    settings.Content,
	}
	body := RenderHTML(render)

	report := CheckCompliance(ComplianceInput{
		Facts:    fact,
		HTML:     body,
		Article:  article,
		Locale:   locale,
		Settings: settings.Compliance,
		Sections: settings.Content.Sections,
	})
	state.result.ComplianceScore = report.Score
	state.emit("compliance_checked", map[string]any{
		"score":   report.Score,
		"verdict": string(report.Verdict()),
		"issues":  len(report.Issues),
	})
	if report.Verdict() == domain.VerdictBlocking {
		if !req.SkipCompliance {
			state.result.ComplianceReport = report
			return state.fail(&domain.ComplianceError{Report: report})
		}
		report.Bypassed = true
		logger.Warn("compliance gate bypassed", zap.Int("blocking", len(report.Blocking())))
		state.emit("compliance_bypassed", map[string]any{"blocking": issueCodes(report.Blocking())})
	}
	state.result.ComplianceReport = report

	var published domain.PublishResult
	if req.DryRun {
		published = domain.PublishResult{
			Success: true,
			PostID:  dryRunPostID,
			URL:     fmt.Sprintf(dryRunURL, req.CasinoSlug),
		}
		state.emit("publish_dry_run", map[string]any{"url": published.URL})
	} else {
		bundle = p.uploadMedia(ctx, state, bundle, settings.Media.Retries)
		render.Media = bundle
		body = RenderHTML(render)
		published = p.publish(ctx, state, seo, fact, bundle, body, settings.Publish)
	}
	state.result.MediaAssets = bundle
	state.result.WordPressPostID = published.PostID
	state.result.PublishedURL = published.URL

	p.recordRun(ctx, state, article, bundle)

	state.result.Success = published.PostID != 0
	state.result.TotalDurationMS = p.now().Sub(state.start).Milliseconds()
	if !published.Success {
		err := fmt.Errorf("%w: %s", domain.ErrPublishFailed, published.Error)
		state.result.Error = err.Error()
		return state.result, err
	}
	state.emit("run_finished", map[string]any{"duration_ms": state.result.TotalDurationMS})
	logger.Info("run finished",
		zap.Bool("success", state.result.Success),
		zap.String("url", state.result.PublishedURL),
		zap.Int64("duration_ms", state.result.TotalDurationMS))
	return state.result, nil
}

func (p *Pipeline) gatherResearch(ctx context.Context, state *runState, res Resolution, casinoSlug, locale string) (domain.ResearchFact, error) {
	fact, err := p.research.Lookup(ctx, ResearchQuery{
		CasinoSlug:        casinoSlug,
		Locale:            locale,
		IncludeSources:    true,
		IncludeSERPIntent: true,
	})
	if err != nil {
		return domain.ResearchFact{}, fmt.Errorf("research lookup: %w", err)
	}
	state.emit("research_lookup", map[string]any{"total_fields": fact.TotalFields, "method": fact.Method})

	if !NeedsCollection(fact, res.Settings.Research) {
		return fact, nil
	}

	if p.research.CanCollect() {
		collected, err := p.research.Collect(ctx, CollectRequest{Tenant: res.Tenant, Existing: fact, Settings: res.Settings.Research})
		if err == nil {
			state.emit("research_collected", map[string]any{"total_fields": collected.TotalFields})
			return collected, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.ResearchFact{}, ctxErr
		}
		state.emit("research_fallback", map[string]any{"error": err.Error()})
	} else {
		state.emit("research_fallback", map[string]any{"error": "live research is not configured"})
	}

	if fact.Empty() {
		return FallbackFacts(casinoSlug, locale), nil
	}
	return fact, nil
}

// seoAndMedia runs the two independent branches concurrently.
func (p *Pipeline) seoAndMedia(ctx context.Context, res Resolution, fact domain.ResearchFact, article domain.GeneratedArticle) (domain.SEOData, domain.MediaBundle, error) {
	var (
		seo    domain.SEOData
		bundle domain.MediaBundle
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		seo = BuildSEO(SEORequest{
			Tenant:   res.Tenant,
			Facts:    fact,
			Article:  article,
			Settings: res.Settings.SEO,
			Content:  res.Settings.Content,
			Now:      p.now(),
		})
		return nil
	})
	g.Go(func() error {
		bundle = p.media.Collect(gctx, MediaRequest{
			CasinoSlug: fact.CasinoSlug,
			CasinoName: fact.CasinoName(),
			Settings:   res.Settings.Media,
		})
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return domain.SEOData{}, domain.MediaBundle{}, err
	}
	return seo, bundle, nil
}

func (p *Pipeline) uploadMedia(ctx context.Context, state *runState, bundle domain.MediaBundle, retries domain.RetrySettings) domain.MediaBundle {
	if p.publisher == nil {
		return bundle
	}
	assets := make([]domain.MediaAsset, len(bundle.Assets))
	copy(assets, bundle.Assets)
	for i, asset := range assets {
		up := p.publisher.UploadMedia(ctx, domain.MediaUpload{
			Filename:    asset.Filename,
			ContentType: asset.ContentType,
			Data:        asset.Data,
			AltText:     asset.Alt,
			Retry:       retries,
		})
		if !up.Success {
			state.emit("media_upload_failed", map[string]any{"file": asset.Filename, "error": up.Error})
			continue
		}
		assets[i].MediaID = up.ID
		assets[i].MediaURL = up.URL
	}
	bundle.Assets = assets
	return bundle
}

func (p *Pipeline) publish(ctx context.Context, state *runState, seo domain.SEOData, fact domain.ResearchFact, bundle domain.MediaBundle, body string, settings domain.PublishSettings) domain.PublishResult {
	if p.publisher == nil {
		return domain.PublishResult{Error: "no publisher configured"}
	}
	featured := 0
	for _, a := range bundle.Assets {
		if a.MediaID != 0 {
			featured = a.MediaID
			break
		}
	}

	result := p.publisher.Publish(ctx, domain.PublishRequest{
		Title:         seo.Title,
		HTML:          body,
		Excerpt:       seo.MetaDescription,
		Status:        settings.DefaultStatus,
		FeaturedMedia: featured,
		Meta:          rankMathMeta(seo),
		ACF:           acfFields(fact, seo, settings),
		Retry:         settings.Retries,
	})
	for _, w := range result.Warnings {
		state.emit("publish_warning", map[string]any{"warning": w})
	}
	if !result.Success {
		state.emit("publish_failed", map[string]any{
			"status_code": result.StatusCode,
			"attempts":    result.Attempts,
			"error":       result.Error,
		})
		return result
	}
	state.emit("published", map[string]any{"post_id": result.PostID, "url": result.URL, "attempts": result.Attempts})
	return result
}

func (p *Pipeline) recordRun(ctx context.Context, state *runState, article domain.GeneratedArticle, bundle domain.MediaBundle) {
	if p.runs == nil {
		return
	}
	r := state.result
	err := p.runs.RecordRun(ctx, domain.RunRecord{
		RunID:           r.RunID,
		TenantSlug:      r.TenantSlug,
		CasinoSlug:      r.CasinoSlug,
		Locale:          r.Locale,
		Success:         r.WordPressPostID != 0,
		DryRun:          r.DryRun,
		PublishedURL:    r.PublishedURL,
		PostID:          r.WordPressPostID,
		ComplianceScore: r.ComplianceScore,
		WordCount:       article.WordCount,
		ImageCount:      bundle.Total(),
		DurationMS:      p.now().Sub(state.start).Milliseconds(),
		CreatedAt:       p.now().UTC(),
	})
	if err != nil {
		state.emit("run_record_failed", map[string]any{"error": err.Error()})
		return
	}
	state.emit("run_recorded", nil)
}

func rankMathMeta(seo domain.SEOData) map[string]any {
	keywords := append([]string{seo.PrimaryKeyword}, seo.SecondaryKeywords...)
	meta := map[string]any{
		"rank_math_title":         seo.Title,
		"rank_math_description":   seo.MetaDescription,
		"rank_math_focus_keyword": strings.Join(keywords, ","),
	}
	if schema, err := json.Marshal(seo.JSONLD); err == nil && len(seo.JSONLD) > 0 {
		meta["rank_math_schema"] = string(schema)
	}
	if seo.CanonicalURL != "" {
		meta["rank_math_canonical_url"] = seo.CanonicalURL
	}
	return meta
}

func acfFields(fact domain.ResearchFact, seo domain.SEOData, settings domain.PublishSettings) map[string]any {
	acf := map[string]any{
		"casino_name":          fact.CasinoName(),
		"rating":               reviewRating,
		"license":              fact.Text("license.primary"),
		"license_number":       fact.Text("license.license_number"),
		"welcome_bonus":        fact.Text("welcome_bonus.amount"),
		"wagering_requirement": fact.Text("welcome_bonus.wagering_requirement"),
		"pros":                 fact.List("pros"),
		"cons":                 fact.List("cons"),
		"primary_keyword":      seo.PrimaryKeyword,
	}
	if settings.AffiliateURL != "" {
		acf["affiliate_url"] = settings.AffiliateURL
	}
	return acf
}

func issueCodes(issues []domain.ComplianceIssue) []string {
	codes := make([]string, 0, len(issues))
	for _, i := range issues {
		codes = append(codes, i.Code)
	}
	return codes
}

// IsComplianceError reports whether err came from a blocking compliance gate.
func IsComplianceError(err error) bool {
	var ce *domain.ComplianceError
	return errors.As(err, &ce)
}
