package ports

import (
	"context"

	"ccms/internal/domain"
)

// ConfigStore reads the three configuration layers and tenant records.
type ConfigStore interface {
	TenantBySlug(ctx context.Context, slug string) (domain.Tenant, error)
	GlobalDefaults(ctx context.Context, chains []string) ([]domain.ChainRow, error)
	TenantDefaults(ctx context.Context, tenantID string, chains []string) ([]domain.ChainRow, error)
	TenantOverrides(ctx context.Context, tenantID, casinoSlug string, chains []string) ([]domain.ChainRow, error)
}

// ResearchStore holds casino facts and topic clusters.
type ResearchStore interface {
	LatestResearch(ctx context.Context, casinoSlug, locale string) (domain.ResearchRecord, error)
	TopicClusters(ctx context.Context, casinoSlug string) ([]domain.TopicCluster, error)
	SaveResearch(ctx context.Context, record domain.ResearchRecord) error
}

// RunRecorder persists a summary of each pipeline execution.
type RunRecorder interface {
	RecordRun(ctx context.Context, record domain.RunRecord) error
}

// VectorStore runs filtered searches over tenant documents.
type VectorStore interface {
	SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]domain.RetrievedDocument, error)
	MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, lambda float64, filter map[string]string) ([]domain.RetrievedDocument, error)
}

// DocumentIndexer writes chunks into the vector store.
type DocumentIndexer interface {
	AddDocuments(ctx context.Context, docs []domain.IndexedDocument) error
	Count(ctx context.Context) (int, error)
}

// ChatClient sends a single prompt to an LLM and returns the completion.
type ChatClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// WebSearcher queries a live web-search API.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.SearchHit, error)
}

// ImageFinder returns candidate image URLs for a query.
type ImageFinder interface {
	FindImages(ctx context.Context, query string, limit int) ([]string, error)
}

// ImageFetcher downloads and validates images.
type ImageFetcher interface {
	Fetch(ctx context.Context, urls []string, namePrefix string, minBytes int) ([]domain.MediaAsset, []error)
}

// MediaArchive stores a copy of a downloaded image and returns its key.
type MediaArchive interface {
	Archive(ctx context.Context, asset domain.MediaAsset) (string, error)
}

// Publisher creates posts and media in the target CMS.
type Publisher interface {
	UploadMedia(ctx context.Context, upload domain.MediaUpload) domain.MediaUploadResult
	Publish(ctx context.Context, req domain.PublishRequest) domain.PublishResult
}
