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

func chunk(id, content, source, category string, score float64) domain.RetrievedDocument {
	return domain.RetrievedDocument{
		ID:      id,
		Content: content,
		Metadata: map[string]string{
			domain.MetaSourceURL:       source,
			domain.MetaContentCategory: category,
		},
		Score:    score,
		HasScore: true,
	}
}

func TestRetrieveEmptyStore(t *testing.T) {
	r := newTestRetriever(&fakeVectorStore{}, nil)

	res := r.Retrieve(context.Background(), RetrievalRequest{Query: "viage bonus", TenantID: "t-crash", Locale: "en-GB"})
	assert.Empty(t, res.Documents)
	assert.NotNil(t, res.Documents)
	assert.Empty(t, res.QueryMetadata.Error)
	assert.Equal(t, domain.RetrievalSingle, res.QueryMetadata.RetrievalType)
	assert.Equal(t, map[string]string{"tenant_id": "t-crash", "locale": "en-GB"}, res.QueryMetadata.TenantFilters)
	assert.Equal(t, fixedNow, res.QueryMetadata.Timestamp)
	assert.Zero(t, res.Stats.TotalDocuments)
}

func TestRetrieveDedupsAndCaps(t *testing.T) {
	store := &fakeVectorStore{docs: []domain.RetrievedDocument{
		chunk("1", "Viage pays out within 24 hours.", "https://a.example", "payments", 0.9),
		chunk("2", "Viage pays out within 24 hours.", "https://b.example", "payments", 0.8),
		chunk("3", "Viage offers 2,000 slots.", "https://a.example", "", 0.7),
		chunk("4", "Support is available around the clock.", "https://c.example", "support", 0.6),
	}}
	r := newTestRetriever(store, nil)

	res := r.Retrieve(context.Background(), RetrievalRequest{Query: "viage", Limit: 2, Type: domain.RetrievalEnsemble})
	require.Empty(t, res.QueryMetadata.Error)
	require.Len(t, res.Documents, 2)
	assert.Equal(t, "1", res.Documents[0].ID)
	assert.Equal(t, "3", res.Documents[1].ID)
	assert.Equal(t, "vector+mmr", res.Documents[0].Metadata[domain.MetaEnsembleMethod])
	assert.Equal(t, 1, res.Stats.UniqueSources)
}

func TestRetrieveThresholdAppliesToScoredDocs(t *testing.T) {
	docs := []domain.RetrievedDocument{
		chunk("1", "strong match", "s1", "", 0.9),
		chunk("2", "weak match", "s2", "", 0.2),
	}
	r := newTestRetriever(&fakeVectorStore{docs: docs, mmr: []domain.RetrievedDocument{}}, nil)

	similar := r.Retrieve(context.Background(), RetrievalRequest{Query: "q", SimilarityThreshold: 0.5, Type: domain.RetrievalEnsemble})
	ids := make([]string, 0, len(similar.Documents))
	for _, d := range similar.Documents {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"1"}, ids, "ensemble similarity results carry scores")

	r = newTestRetriever(&fakeVectorStore{docs: docs}, nil)
	mmr := r.Retrieve(context.Background(), RetrievalRequest{Query: "q", SimilarityThreshold: 0.5})
	assert.Len(t, mmr.Documents, 2, "mmr results have no score and are kept")
}

func TestRetrieveErrorIsReported(t *testing.T) {
	r := newTestRetriever(&fakeVectorStore{err: errors.New("collection missing")}, nil)

	res := r.Retrieve(context.Background(), RetrievalRequest{Query: "q"})
	assert.Empty(t, res.Documents)
	assert.Contains(t, res.QueryMetadata.Error, "collection missing")
}

func TestRetrieveUnknownTypeFallsBack(t *testing.T) {
	store := &fakeVectorStore{docs: []domain.RetrievedDocument{chunk("1", "x", "s", "", 0.9)}}
	r := newTestRetriever(store, nil)

	res := r.Retrieve(context.Background(), RetrievalRequest{Query: "q", Type: "hybrid"})
	assert.Equal(t, domain.RetrievalMultiQuery, res.QueryMetadata.RetrievalType)
	assert.Equal(t, []string{"q"}, res.QueryMetadata.Queries, "no model, the query runs as is")
	assert.Len(t, res.Documents, 1)

	llm := &scriptedLLM{replies: []string{"q one\nq two"}}
	res = newTestRetriever(store, llm).Retrieve(context.Background(), RetrievalRequest{Query: "q", Type: "hybrid"})
	assert.Equal(t, []string{"q one", "q two"}, res.QueryMetadata.Queries)
	assert.Equal(t, 1, llm.calls())
}

func TestRetrieveMultiQuery(t *testing.T) {
	store := &fakeVectorStore{docs: []domain.RetrievedDocument{chunk("1", "same chunk", "s", "", 0.9)}}
	llm := &scriptedLLM{replies: []string{"1. viage casino bonus\n2. viage welcome offer\n3. viage promotions\n4. extra"}}
	r := newTestRetriever(store, llm)

	res := r.Retrieve(context.Background(), RetrievalRequest{Query: "viage bonus", Type: domain.RetrievalMultiQuery})
	assert.Equal(t, domain.RetrievalMultiQuery, res.QueryMetadata.RetrievalType)
	assert.Equal(t, []string{"viage casino bonus", "viage welcome offer", "viage promotions"}, res.QueryMetadata.Queries)
	assert.Len(t, res.Documents, 1, "identical chunks from every paraphrase collapse")
}

func TestRetrieveMultiQueryLLMFailure(t *testing.T) {
	r := newTestRetriever(&fakeVectorStore{}, &scriptedLLM{err: errors.New("rate limited")})

	res := r.Retrieve(context.Background(), RetrievalRequest{Query: "q", Type: domain.RetrievalMultiQuery})
	assert.Contains(t, res.QueryMetadata.Error, "rate limited")
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats([]domain.RetrievedDocument{
		chunk("1", strings.Repeat("é", 10), "s1", "bonus", 0),
		chunk("2", strings.Repeat("a", 20), "s1", "", 0),
	})
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 1, stats.UniqueSources)
	assert.Equal(t, map[string]int{"bonus": 1, "general": 1}, stats.ContentCategories)
	assert.InDelta(t, 15.0, stats.AverageChunkSize, 1e-9)
}
