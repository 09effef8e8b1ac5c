package domain

import "time"

// RetrievalType selects the retrieval strategy.
type RetrievalType string

const (
	RetrievalSingle     RetrievalType = "single"
	RetrievalMultiQuery RetrievalType = "multi_query"
	RetrievalEnsemble   RetrievalType = "ensemble"
)

// Metadata keys stamped on vector documents.
const (
	MetaTenantID        = "tenant_id"
	MetaBrand           = "brand"
	MetaLocale          = "locale"
	MetaSourceURL       = "source_url"
	MetaContentCategory = "content_category"
	MetaRetrievedAt     = "retrieved_at"
	MetaEnsembleMethod  = "ensemble_method"
)

// RetrievedDocument is a text chunk returned by a vector search.
type RetrievedDocument struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Score    float64           `json:"score,omitempty"`
	HasScore bool              `json:"has_score"`
}

// IndexedDocument is a chunk written into the vector store.
type IndexedDocument struct {
	ID       string            `json:"id" yaml:"id"`
	Content  string            `json:"content" yaml:"content"`
	Metadata map[string]string `json:"metadata" yaml:"metadata"`
}

// QueryMetadata describes how a retrieval was executed.
type QueryMetadata struct {
	RetrievalType RetrievalType     `json:"retrieval_type"`
	QueryText     string            `json:"query_text"`
	Queries       []string          `json:"queries,omitempty"`
	TenantFilters map[string]string `json:"tenant_filters"`
	Timestamp     time.Time         `json:"timestamp"`
	Error         string            `json:"error,omitempty"`
}

// RetrievalStats summarises a document set.
type RetrievalStats struct {
	TotalDocuments    int            `json:"total_documents"`
	UniqueSources     int            `json:"unique_sources"`
	ContentCategories map[string]int `json:"content_categories"`
	AverageChunkSize  float64        `json:"average_chunk_size"`
}

// RetrievalResult is returned by the tenant retriever; it never carries an error value.
type RetrievalResult struct {
	Documents     []RetrievedDocument `json:"documents"`
	QueryMetadata QueryMetadata       `json:"query_metadata"`
	Stats         RetrievalStats      `json:"retrieval_stats"`
	TenantConfig  TenantConfig        `json:"tenant_config"`
}
