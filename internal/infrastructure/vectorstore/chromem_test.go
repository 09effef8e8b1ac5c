package vectorstore

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"ccms/internal/domain"
)

// hashEmbed spreads words over a small vector so that shared vocabulary means higher similarity.
func hashEmbed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 64)
	vec[0] = 0.1
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%64]++
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore("", false, "documents", hashEmbed, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func seedDocs(t *testing.T, store *ChromemStore) {
	t.Helper()
	docs := []domain.IndexedDocument{
		{ID: "a1", Content: "viage casino welcome bonus wagering terms", Metadata: map[string]string{"tenant_id": "crash", "locale": "en-GB"}},
		{ID: "a2", Content: "viage casino welcome bonus wagering rules", Metadata: map[string]string{"tenant_id": "crash", "locale": "en-GB"}},
		{ID: "a3", Content: "payment methods withdrawal speed visa skrill", Metadata: map[string]string{"tenant_id": "crash", "locale": "en-GB"}},
		{ID: "b1", Content: "viage casino welcome bonus wagering terms", Metadata: map[string]string{"tenant_id": "other", "locale": "en-GB"}},
	}
	if err := store.AddDocuments(context.Background(), docs); err != nil {
		t.Fatalf("add documents: %v", err)
	}
}

func TestChromemSimilaritySearchFiltersByTenant(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedDocs(t, store)

	docs, err := store.SimilaritySearch(context.Background(), "viage welcome bonus", 2, map[string]string{"tenant_id": "crash"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	for _, d := range docs {
		if d.Metadata["tenant_id"] != "crash" {
			t.Fatalf("document %s leaked from tenant %s", d.ID, d.Metadata["tenant_id"])
		}
		if !d.HasScore {
			t.Fatalf("similarity results must carry a score")
		}
	}
	if docs[0].Score < docs[1].Score {
		t.Fatalf("results must be ordered by score")
	}
}

func TestChromemMMRPrefersDiverseResults(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedDocs(t, store)

	docs, err := store.MaxMarginalRelevanceSearch(context.Background(), "viage welcome bonus wagering", 2, 3, 0.3, map[string]string{"tenant_id": "crash"})
	if err != nil {
		t.Fatalf("mmr: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	ids := map[string]bool{docs[0].ID: true, docs[1].ID: true}
	if ids["a1"] && ids["a2"] {
		t.Fatalf("mmr returned two near-duplicates: %v", ids)
	}
	for _, d := range docs {
		if d.HasScore {
			t.Fatalf("mmr results must not carry a score")
		}
	}
}

func TestChromemEmptyCollection(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	docs, err := store.SimilaritySearch(context.Background(), "anything", 5, nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no docs, got %d", len(docs))
	}

	n, err := store.Count(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("count = %d, %v", n, err)
	}
}

func TestChromemRejectsDocumentWithoutID(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	err := store.AddDocuments(context.Background(), []domain.IndexedDocument{{Content: "x"}})
	if err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestSelectMMR(t *testing.T) {
	t.Parallel()

	query := []float32{1, 0, 0}
	candidates := [][]float32{
		{1, 0, 0},
		{0.99, 0.01, 0},
		{0.6, 0.8, 0},
	}

	if got := selectMMR(query, candidates, 2, 1); got[0] != 0 || got[1] != 1 {
		t.Fatalf("pure relevance order = %v", got)
	}
	if got := selectMMR(query, candidates, 2, 0.3); got[0] != 0 || got[1] != 2 {
		t.Fatalf("diverse order = %v", got)
	}
	if got := selectMMR(query, candidates, 10, 0.5); len(got) != 3 {
		t.Fatalf("k must be capped at candidate count, got %v", got)
	}
	if got := selectMMR(query, nil, 3, 0.5); got != nil {
		t.Fatalf("no candidates must select nothing, got %v", got)
	}
}

func TestQdrantFilter(t *testing.T) {
	t.Parallel()

	f := qdrantFilter(map[string]string{"tenant_id": "crash", "brand": "CrashCasino"})
	must, ok := f["must"].([]map[string]any)
	if !ok || len(must) != 2 {
		t.Fatalf("unexpected filter %v", f)
	}
	if must[0]["key"] != "brand" || must[1]["key"] != "tenant_id" {
		t.Fatalf("filter keys must be sorted: %v", must)
	}
}
