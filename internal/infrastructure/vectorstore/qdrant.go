package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/qdrant"

	"ccms/internal/domain"
	"ccms/internal/ports"
)

// QdrantStore serves tenant documents from a remote Qdrant collection via langchaingo.
type QdrantStore struct {
	store      qdrant.Store
	embedder   embeddings.Embedder
	baseURL    url.URL
	apiKey     string
	collection string
	http       *http.Client
}

var (
	_ ports.VectorStore     = (*QdrantStore)(nil)
	_ ports.DocumentIndexer = (*QdrantStore)(nil)
)

// NewQdrantStore connects to a collection; the collection must already exist.
func NewQdrantStore(rawURL, apiKey, collection string, embedder embeddings.Embedder) (*QdrantStore, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant url: %w", err)
	}

	opts := []qdrant.Option{
		qdrant.WithURL(*u),
		qdrant.WithCollectionName(collection),
		qdrant.WithEmbedder(embedder),
	}
	if apiKey != "" {
		opts = append(opts, qdrant.WithAPIKey(apiKey))
	}

	store, err := qdrant.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create qdrant store: %w", err)
	}

	return &QdrantStore{
		store:      store,
		embedder:   embedder,
		baseURL:    *u,
		apiKey:     apiKey,
		collection: collection,
		http:       &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// SimilaritySearch returns up to k scored documents matching every filter key.
func (s *QdrantStore) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]domain.RetrievedDocument, error) {
	if k <= 0 {
		return nil, nil
	}
	var opts []vectorstores.Option
	if len(filter) > 0 {
		opts = append(opts, vectorstores.WithFilters(qdrantFilter(filter)))
	}

	docs, err := s.store.SimilaritySearch(ctx, query, k, opts...)
	if err != nil {
		return nil, fmt.Errorf("qdrant similarity search: %w", err)
	}

	out := make([]domain.RetrievedDocument, 0, len(docs))
	for _, d := range docs {
		doc := fromSchema(d)
		doc.Score = float64(d.Score)
		doc.HasScore = true
		out = append(out, doc)
	}
	return out, nil
}

// MaxMarginalRelevanceSearch re-embeds fetchK candidates and re-ranks them locally.
func (s *QdrantStore) MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, lambda float64, filter map[string]string) ([]domain.RetrievedDocument, error) {
	if fetchK < k {
		fetchK = k
	}
	candidates, err := s.SimilaritySearch(ctx, query, fetchK, filter)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed candidates: %w", err)
	}
	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	picked := selectMMR(queryVec, vectors, k, lambda)
	out := make([]domain.RetrievedDocument, 0, len(picked))
	for _, i := range picked {
		doc := candidates[i]
		doc.Score = 0
		doc.HasScore = false
		out = append(out, doc)
	}
	return out, nil
}

// AddDocuments embeds and upserts chunks.
func (s *QdrantStore) AddDocuments(ctx context.Context, docs []domain.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}
	batch := make([]schema.Document, 0, len(docs))
	for _, d := range docs {
		meta := make(map[string]any, len(d.Metadata)+1)
		for k, v := range d.Metadata {
			meta[k] = v
		}
		meta["doc_id"] = d.ID
		batch = append(batch, schema.Document{PageContent: d.Content, Metadata: meta})
	}
	if _, err := s.store.AddDocuments(ctx, batch); err != nil {
		return fmt.Errorf("qdrant add documents: %w", err)
	}
	return nil
}

// Count asks Qdrant for the exact number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	endpoint := s.baseURL.JoinPath("collections", s.collection, "points", "count")
	body, _ := json.Marshal(map[string]any{"exact": true})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("qdrant count returned %s", resp.Status)
	}

	var payload struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode count: %w", err)
	}
	return payload.Result.Count, nil
}

// qdrantFilter turns a flat equality map into a Qdrant "must" filter over payload keys.
func qdrantFilter(filter map[string]string) map[string]any {
	must := make([]map[string]any, 0, len(filter))
	for _, key := range slices.Sorted(maps.Keys(filter)) {
		must = append(must, map[string]any{
			"key":   key,
			"match": map[string]any{"value": filter[key]},
		})
	}
	return map[string]any{"must": must}
}

func fromSchema(d schema.Document) domain.RetrievedDocument {
	meta := make(map[string]string, len(d.Metadata))
	for k, v := range d.Metadata {
		meta[k] = fmt.Sprint(v)
	}
	return domain.RetrievedDocument{
		ID:       meta["doc_id"],
		Content:  d.PageContent,
		Metadata: meta,
	}
}
