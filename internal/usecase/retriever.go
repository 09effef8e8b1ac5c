package usecase

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"ccms/internal/domain"
	"ccms/internal/retrieval"
)

const (
	defaultRetrievalLimit = 5
	defaultCategory       = "general"
)

var errNoRegistry = errors.New("no retrieval strategies registered")

// RetrievalRequest is a tenant-scoped retrieval call.
type RetrievalRequest struct {
	Query               string
	TenantID            string
	Brand               string
	Locale              string
	Voice               string
	Limit               int
	SimilarityThreshold float64
	Type                domain.RetrievalType
}

// RetrieverOptions tunes MMR.
type RetrieverOptions struct {
	FetchK int
	Lambda float64
}

// Retriever runs the selected strategy and never fails: errors end up in the query metadata.
type Retriever struct {
	registry *retrieval.Registry
	opts     RetrieverOptions
	logger   *zap.Logger
	now      func() time.Time
}

// NewRetriever wires a strategy registry.
func NewRetriever(registry *retrieval.Registry, opts RetrieverOptions, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.FetchK <= 0 {
		opts.FetchK = 20
	}
	if opts.Lambda <= 0 || opts.Lambda > 1 {
		opts.Lambda = 0.5
	}
	return &Retriever{registry: registry, opts: opts, logger: logger, now: time.Now}
}

// Retrieve returns tenant-filtered, deduplicated documents capped at the request limit.
func (r *Retriever) Retrieve(ctx context.Context, req RetrievalRequest) domain.RetrievalResult {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultRetrievalLimit
	}
	filter := TenantFilter(req.TenantID, req.Brand, req.Locale)

	result := domain.RetrievalResult{
		Documents: []domain.RetrievedDocument{},
		QueryMetadata: domain.QueryMetadata{
			RetrievalType: req.Type,
			QueryText:     req.Query,
			TenantFilters: filter,
			Timestamp:     r.now().UTC(),
		},
		Stats: ComputeStats(nil),
		TenantConfig: domain.TenantConfig{
			TenantID:     req.TenantID,
			BrandName:    req.Brand,
			Locale:       req.Locale,
			VoiceProfile: req.Voice,
		},
	}

	strategy, err := r.resolve(req.Type)
	if err != nil {
		result.QueryMetadata.Error = err.Error()
		return result
	}
	result.QueryMetadata.RetrievalType = strategy.Name()

	out, err := strategy.Retrieve(ctx, retrieval.Request{
		Query:  req.Query,
		Filter: filter,
		Limit:  limit,
		FetchK: max(r.opts.FetchK, limit),
		Lambda: r.opts.Lambda,
	})
	result.QueryMetadata.Queries = out.Queries
	if err != nil {
		r.logger.Warn("retrieval failed", zap.String("type", string(strategy.Name())), zap.Error(err))
		result.QueryMetadata.Error = err.Error()
		return result
	}

	docs := retrieval.AboveThreshold(out.Documents, req.SimilarityThreshold)
	docs = retrieval.Deduplicate(docs)
	if len(docs) > limit {
		docs = docs[:limit]
	}

	result.Documents = docs
	result.Stats = ComputeStats(docs)
	r.logger.Debug("retrieval done",
		zap.String("type", string(strategy.Name())),
		zap.Int("raw", len(out.Documents)),
		zap.Int("kept", len(docs)))
	return result
}

// resolve uses single when no type is set and multi_query for unknown types.
func (r *Retriever) resolve(t domain.RetrievalType) (retrieval.Strategy, error) {
	if r.registry == nil {
		return nil, errNoRegistry
	}
	if t == "" {
		return r.registry.Resolve(domain.RetrievalSingle)
	}
	if s, err := r.registry.Resolve(t); err == nil {
		return s, nil
	}
	r.logger.Debug("unknown retrieval type, using multi_query", zap.String("type", string(t)))
	return r.registry.Resolve(domain.RetrievalMultiQuery)
}

// TenantFilter builds the metadata filter, skipping blank fields.
func TenantFilter(tenantID, brand, locale string) map[string]string {
	filter := map[string]string{}
	if tenantID != "" {
		filter[domain.MetaTenantID] = tenantID
	}
	if brand != "" {
		filter[domain.MetaBrand] = brand
	}
	if locale != "" {
		filter[domain.MetaLocale] = locale
	}
	return filter
}

// ComputeStats summarises a document set.
func ComputeStats(docs []domain.RetrievedDocument) domain.RetrievalStats {
	stats := domain.RetrievalStats{
		TotalDocuments:    len(docs),
		ContentCategories: map[string]int{},
	}
	if len(docs) == 0 {
		return stats
	}

	sources := map[string]struct{}{}
	total := 0
	for _, d := range docs {
		if src := d.Metadata[domain.MetaSourceURL]; src != "" {
			sources[src] = struct{}{}
		}
		category := d.Metadata[domain.MetaContentCategory]
		if category == "" {
			category = defaultCategory
		}
		stats.ContentCategories[category]++
		total += utf8.RuneCountInString(d.Content)
	}
	stats.UniqueSources = len(sources)
	stats.AverageChunkSize = float64(total) / float64(len(docs))
	return stats
}
