package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ccms/internal/domain"
	"ccms/internal/ports"
)

const (
	methodStored   = "database"
	methodNone     = "none"
	methodWeb      = "web_research"
	methodFallback = "fallback"
)

// ResearchQuery selects stored research for one casino.
type ResearchQuery struct {
	CasinoSlug        string
	Locale            string
	IncludeSources    bool
	IncludeSERPIntent bool
}

// CollectRequest drives live research when stored facts are thin.
type CollectRequest struct {
	Tenant   domain.TenantConfig
	Existing domain.ResearchFact
	Settings domain.ResearchSettings
}

// ResearchDeps wires the research tool. Searcher, LLM and Retriever are only needed by Collect.
type ResearchDeps struct {
	Store     ports.ResearchStore
	Searcher  ports.WebSearcher
	LLM       ports.ChatClient
	Retriever *Retriever
	Logger    *zap.Logger
	Now       func() time.Time
}

// Researcher reads casino facts and, when asked, gathers new ones.
type Researcher struct {
	store     ports.ResearchStore
	searcher  ports.WebSearcher
	llm       ports.ChatClient
	retriever *Retriever
	logger    *zap.Logger
	now       func() time.Time
}

// NewResearcher constructs the research tool.
func NewResearcher(deps ResearchDeps) *Researcher {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Researcher{
		store:     deps.Store,
		searcher:  deps.Searcher,
		llm:       deps.LLM,
		retriever: deps.Retriever,
		logger:    deps.Logger,
		now:       deps.Now,
	}
}

// Lookup returns the newest stored research. A casino without research yields empty facts.
func (r *Researcher) Lookup(ctx context.Context, q ResearchQuery) (domain.ResearchFact, error) {
	fact := domain.ResearchFact{
		CasinoSlug: q.CasinoSlug,
		Locale:     q.Locale,
		Facts:      map[string]any{},
		Method:     methodNone,
	}

	rec, err := r.store.LatestResearch(ctx, q.CasinoSlug, q.Locale)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		r.logger.Info("no stored research", zap.String("casino", q.CasinoSlug), zap.String("locale", q.Locale))
	case err != nil:
		return domain.ResearchFact{}, fmt.Errorf("load research %s/%s: %w", q.CasinoSlug, q.Locale, err)
	default:
		if rec.Facts != nil {
			fact.Facts = rec.Facts
		}
		fact.Sources = rec.Sources
		fact.SERPIntent = rec.SERPIntent
		fact.SecondaryKeywords = rec.SecondaryKeywords
		fact.UpdatedAt = rec.UpdatedAt
		fact.Method = methodStored
	}

	clusters, err := r.store.TopicClusters(ctx, q.CasinoSlug)
	if err != nil {
		return domain.ResearchFact{}, fmt.Errorf("load topic clusters %s: %w", q.CasinoSlug, err)
	}
	fact.TopicClusters = clusters

	if !q.IncludeSources {
		fact.Sources = nil
	}
	if !q.IncludeSERPIntent {
		fact.SERPIntent = nil
	}
	fact.TotalFields = domain.CountFields(fact.Facts)
	return fact, nil
}

// NeedsCollection reports whether stored facts fall below the configured minimum.
func NeedsCollection(fact domain.ResearchFact, s domain.ResearchSettings) bool {
	return fact.TotalFields < s.MinFields
}

// CanCollect reports whether live research is wired.
func (r *Researcher) CanCollect() bool {
	return r.searcher != nil && r.llm != nil
}

// Collect searches the web, extracts facts with the LLM and stores them.
func (r *Researcher) Collect(ctx context.Context, req CollectRequest) (domain.ResearchFact, error) {
	if !r.CanCollect() {
		return domain.ResearchFact{}, errors.New("live research is not configured")
	}
	existing := req.Existing
	casino := existing.CasinoName()

	var contextDocs []string
	if r.retriever != nil {
		result := r.retriever.Retrieve(ctx, RetrievalRequest{
			Query:               casino + " review licensing bonuses payments",
			TenantID:            req.Tenant.TenantID,
			Brand:               req.Tenant.BrandName,
			Locale:              existing.Locale,
			Voice:               req.Tenant.VoiceProfile,
			Limit:               req.Settings.RetrievalLimit,
			SimilarityThreshold: req.Settings.SimilarityThreshold,
			Type:                domain.RetrievalType(req.Settings.RetrievalType),
		})
		for _, d := range result.Documents {
			contextDocs = append(contextDocs, d.Content)
		}
	}

	hits, sources := r.search(ctx, casino, existing, req.Settings)
	if err := ctx.Err(); err != nil {
		return domain.ResearchFact{}, err
	}
	if len(hits) == 0 && len(contextDocs) == 0 {
		return domain.ResearchFact{}, errors.New("no search results or tenant documents to extract facts from")
	}

	completion, err := r.llm.Complete(ctx, extractionPrompt(casino, existing.Locale, hits, contextDocs))
	if err != nil {
		return domain.ResearchFact{}, fmt.Errorf("extract facts: %w", err)
	}
	extracted, err := ParseFactsJSON(completion)
	if err != nil {
		return domain.ResearchFact{}, err
	}

	facts := make(map[string]any, len(existing.Facts)+len(extracted))
	for k, v := range existing.Facts {
		facts[k] = v
	}
	for k, v := range extracted {
		facts[k] = v
	}
	if _, ok := facts["casino_name"]; !ok {
		facts["casino_name"] = casino
	}

	now := r.now().UTC()
	record := domain.ResearchRecord{
		TenantID:          req.Tenant.TenantID,
		CasinoSlug:        existing.CasinoSlug,
		Locale:            existing.Locale,
		Facts:             facts,
		Sources:           append(append([]domain.Source{}, existing.Sources...), sources...),
		SERPIntent:        existing.SERPIntent,
		SecondaryKeywords: existing.SecondaryKeywords,
		UpdatedAt:         now,
	}
	if err := r.store.SaveResearch(ctx, record); err != nil {
		return domain.ResearchFact{}, fmt.Errorf("save research: %w", err)
	}

	r.logger.Info("research collected",
		zap.String("casino", existing.CasinoSlug),
		zap.Int("search_hits", len(hits)),
		zap.Int("context_docs", len(contextDocs)),
		zap.Int("total_fields", domain.CountFields(facts)))

	out := existing
	out.Facts = facts
	out.Sources = record.Sources
	out.UpdatedAt = now
	out.TotalFields = domain.CountFields(facts)
	out.Method = methodWeb
	return out, nil
}

// search runs the configured query templates one after another. Failed queries are skipped.
func (r *Researcher) search(ctx context.Context, casino string, fact domain.ResearchFact, s domain.ResearchSettings) ([]domain.SearchHit, []domain.Source) {
	name := strings.TrimSuffix(casino, " Casino")
	replacer := strings.NewReplacer("{casino}", name, "{locale}", fact.Locale)
	date := r.now().UTC().Format("2006-01-02")

	var (
		hits    []domain.SearchHit
		sources []domain.Source
	)
	for _, tmpl := range s.Queries {
		if ctx.Err() != nil {
			break
		}
		query := replacer.Replace(tmpl)
		found, err := r.searcher.Search(ctx, query, s.MaxResults)
		if err != nil {
			r.logger.Warn("search query failed", zap.String("query", query), zap.Error(err))
			continue
		}
		for _, h := range found {
			hits = append(hits, h)
			sources = append(sources, domain.Source{URL: h.URL, Date: date, Note: h.Title})
		}
	}
	return hits, sources
}

// FallbackFacts is the minimal fact set used when research could not be collected.
func FallbackFacts(casinoSlug, locale string) domain.ResearchFact {
	facts := map[string]any{"casino_name": domain.DefaultCasinoName(casinoSlug)}
	return domain.ResearchFact{
		CasinoSlug:  casinoSlug,
		Locale:      locale,
		Facts:       facts,
		TotalFields: domain.CountFields(facts),
		Method:      methodFallback,
	}
}

// ParseFactsJSON extracts the first JSON object from a completion, tolerating code fences and prose.
func ParseFactsJSON(completion string) (map[string]any, error) {
	start := strings.Index(completion, "{")
	end := strings.LastIndex(completion, "}")
	if start < 0 || end <= start {
		return nil, errors.New("completion contains no JSON object")
	}
	var facts map[string]any
	if err := json.Unmarshal([]byte(completion[start:end+1]), &facts); err != nil {
		return nil, fmt.Errorf("decode facts json: %w", err)
	}
	pruneEmpty(facts)
	return facts, nil
}

func pruneEmpty(m map[string]any) {
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			delete(m, k)
		case string:
			if strings.TrimSpace(t) == "" || strings.EqualFold(t, "unknown") || strings.EqualFold(t, "n/a") {
				delete(m, k)
			}
		case map[string]any:
			pruneEmpty(t)
			if len(t) == 0 {
				delete(m, k)
			}
		}
	}
}

func extractionPrompt(casino, locale string, hits []domain.SearchHit, docs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extract verified facts about %s for the %s market from the material below.\n", casino, locale)
	b.WriteString("Answer with a single JSON object using these keys and omit anything the material does not state:\n")
	b.WriteString(`{"casino_name": "", "established": "", "owner": "",
 "license": {"primary": "", "license_number": "", "additional": []},
 "welcome_bonus": {"amount": "", "free_spins": "", "wagering_requirement": "", "min_deposit": "", "validity": ""},
 "games": {"total": 0, "providers": [], "live_casino": false},
 "payments": {"deposit_methods": [], "withdrawal_methods": [], "withdrawal_time": "", "min_withdrawal": ""},
 "support": {"channels": [], "hours": "", "languages": []},
 "pros": [], "cons": []}`)
	b.WriteString("\n\n")

	for i, h := range hits {
		fmt.Fprintf(&b, "[web %d] %s (%s)\n%s\n\n", i+1, h.Title, h.URL, h.Content)
	}
	for i, d := range docs {
		fmt.Fprintf(&b, "[doc %d]\n%s\n\n", i+1, d)
	}
	return b.String()
}
