package vectorstore

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/embeddings"
	"go.uber.org/zap"

	"ccms/internal/domain"
	"ccms/internal/ports"
)

// ChromemStore keeps tenant documents in an embedded chromem-go collection.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embed      chromem.EmbeddingFunc
	logger     *zap.Logger
}

var (
	_ ports.VectorStore     = (*ChromemStore)(nil)
	_ ports.DocumentIndexer = (*ChromemStore)(nil)
)

// EmbeddingFuncFrom adapts a langchaingo embedder to chromem's embedding signature.
func EmbeddingFuncFrom(e embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return e.EmbedQuery(ctx, text)
	}
}

// NewChromemStore opens (or creates) a collection. An empty path keeps everything in memory.
func NewChromemStore(path string, compress bool, name string, embed chromem.EmbeddingFunc, logger *zap.Logger) (*ChromemStore, error) {
	if embed == nil {
		return nil, fmt.Errorf("chromem store needs an embedding function")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(path, compress)
		if err != nil {
			return nil, fmt.Errorf("open chromem db %s: %w", path, err)
		}
	}

	collection, err := db.GetOrCreateCollection(name, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", name, err)
	}

	logger.Debug("chromem collection ready", zap.String("collection", name), zap.Int("documents", collection.Count()))
	return &ChromemStore{db: db, collection: collection, embed: embed, logger: logger}, nil
}

// SimilaritySearch returns up to k scored documents matching the filter.
func (s *ChromemStore) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]domain.RetrievedDocument, error) {
	n := s.capResults(k)
	if n == 0 {
		return nil, nil
	}

	results, err := s.collection.Query(ctx, query, n, whereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	docs := make([]domain.RetrievedDocument, 0, len(results))
	for _, r := range results {
		docs = append(docs, domain.RetrievedDocument{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: copyMetadata(r.Metadata),
			Score:    float64(r.Similarity),
			HasScore: true,
		})
	}
	return docs, nil
}

// MaxMarginalRelevanceSearch fetches fetchK candidates and re-ranks them for diversity.
// Returned documents carry no score.
func (s *ChromemStore) MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, lambda float64, filter map[string]string) ([]domain.RetrievedDocument, error) {
	if fetchK < k {
		fetchK = k
	}
	n := s.capResults(fetchK)
	if n == 0 || k <= 0 {
		return nil, nil
	}

	queryVec, err := s.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVec = normalize(queryVec)

	results, err := s.collection.QueryEmbedding(ctx, queryVec, n, whereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query embedding: %w", err)
	}

	vectors := make([][]float32, len(results))
	for i, r := range results {
		vectors[i] = r.Embedding
	}

	picked := selectMMR(queryVec, vectors, k, lambda)
	docs := make([]domain.RetrievedDocument, 0, len(picked))
	for _, i := range picked {
		docs = append(docs, domain.RetrievedDocument{
			ID:       results[i].ID,
			Content:  results[i].Content,
			Metadata: copyMetadata(results[i].Metadata),
		})
	}
	return docs, nil
}

// AddDocuments embeds and stores chunks.
func (s *ChromemStore) AddDocuments(ctx context.Context, docs []domain.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}
	batch := make([]chromem.Document, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document without id")
		}
		batch = append(batch, chromem.Document{
			ID:       d.ID,
			Content:  d.Content,
			Metadata: copyMetadata(d.Metadata),
		})
	}
	if err := s.collection.AddDocuments(ctx, batch, runtime.NumCPU()); err != nil {
		return fmt.Errorf("chromem add documents: %w", err)
	}
	s.logger.Debug("documents indexed", zap.Int("count", len(batch)))
	return nil
}

// Count returns the number of documents in the collection.
func (s *ChromemStore) Count(context.Context) (int, error) {
	return s.collection.Count(), nil
}

func (s *ChromemStore) capResults(k int) int {
	count := s.collection.Count()
	if k > count {
		return count
	}
	if k < 0 {
		return 0
	}
	return k
}

func whereClause(filter map[string]string) map[string]string {
	if len(filter) == 0 {
		return nil
	}
	return filter
}

func copyMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
