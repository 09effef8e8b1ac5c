package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"ccms/internal/domain"
	"ccms/internal/ports"
)

// EnsembleMethod is stamped on every document returned by the ensemble strategy.
const EnsembleMethod = "vector+mmr"

const maxParaphrases = 3

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)

// Single runs one MMR search with the tenant filter.
type Single struct {
	store ports.VectorStore
}

// NewSingle wraps a vector store.
func NewSingle(store ports.VectorStore) *Single {
	return &Single{store: store}
}

func (s *Single) Name() domain.RetrievalType { return domain.RetrievalSingle }

func (s *Single) Retrieve(ctx context.Context, req Request) (Outcome, error) {
	docs, err := s.store.MaxMarginalRelevanceSearch(ctx, req.Query, req.Limit, req.FetchK, req.Lambda, req.Filter)
	if err != nil {
		return Outcome{}, fmt.Errorf("mmr search: %w", err)
	}
	return Outcome{Documents: docs, Queries: []string{req.Query}}, nil
}

// MultiQuery asks the LLM for paraphrases and runs each through Single.
type MultiQuery struct {
	single *Single
	llm    ports.ChatClient
}

// NewMultiQuery wires the paraphrasing model.
func NewMultiQuery(store ports.VectorStore, llm ports.ChatClient) *MultiQuery {
	return &MultiQuery{single: NewSingle(store), llm: llm}
}

func (m *MultiQuery) Name() domain.RetrievalType { return domain.RetrievalMultiQuery }

func (m *MultiQuery) Retrieve(ctx context.Context, req Request) (Outcome, error) {
	queries, err := m.expand(ctx, req.Query)
	if err != nil {
		return Outcome{}, err
	}

	var docs []domain.RetrievedDocument
	for _, q := range queries {
		sub := req
		sub.Query = q
		out, err := m.single.Retrieve(ctx, sub)
		if err != nil {
			return Outcome{}, fmt.Errorf("query %q: %w", q, err)
		}
		docs = append(docs, out.Documents...)
	}
	return Outcome{Documents: docs, Queries: queries}, nil
}

func (m *MultiQuery) expand(ctx context.Context, query string) ([]string, error) {
	if m.llm == nil {
		return []string{query}, nil
	}
	prompt := fmt.Sprintf(
		"Write %d alternative phrasings of the search query below to improve document retrieval. "+
			"Return one phrasing per line with no numbering.\n\nQuery: %s", maxParaphrases, query)
	out, err := m.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("expand query: %w", err)
	}
	return ParseParaphrases(query, out), nil
}

// ParseParaphrases returns up to three distinct paraphrases. Lines repeating
// the original are skipped; the original is used alone when nothing usable remains.
func ParseParaphrases(original, completion string) []string {
	var queries []string
	seen := map[string]struct{}{strings.ToLower(strings.TrimSpace(original)): {}}
	for _, line := range strings.Split(completion, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		key := strings.ToLower(line)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		queries = append(queries, line)
		if len(queries) == maxParaphrases {
			break
		}
	}
	if len(queries) == 0 {
		return []string{original}
	}
	return queries
}

// Ensemble unions a similarity search and an MMR search.
type Ensemble struct {
	store ports.VectorStore
}

// NewEnsemble wraps a vector store.
func NewEnsemble(store ports.VectorStore) *Ensemble {
	return &Ensemble{store: store}
}

func (e *Ensemble) Name() domain.RetrievalType { return domain.RetrievalEnsemble }

func (e *Ensemble) Retrieve(ctx context.Context, req Request) (Outcome, error) {
	similar, err := e.store.SimilaritySearch(ctx, req.Query, req.Limit, req.Filter)
	if err != nil {
		return Outcome{}, fmt.Errorf("similarity search: %w", err)
	}
	diverse, err := e.store.MaxMarginalRelevanceSearch(ctx, req.Query, req.Limit, req.FetchK, req.Lambda, req.Filter)
	if err != nil {
		return Outcome{}, fmt.Errorf("mmr search: %w", err)
	}

	docs := make([]domain.RetrievedDocument, 0, len(similar)+len(diverse))
	for _, d := range append(similar, diverse...) {
		meta := make(map[string]string, len(d.Metadata)+1)
		for k, v := range d.Metadata {
			meta[k] = v
		}
		meta[domain.MetaEnsembleMethod] = EnsembleMethod
		d.Metadata = meta
		docs = append(docs, d)
	}
	return Outcome{Documents: docs, Queries: []string{req.Query}}, nil
}

// DefaultRegistry registers the three built-in strategies.
func DefaultRegistry(store ports.VectorStore, llm ports.ChatClient) *Registry {
	reg := NewRegistry()
	reg.Register(NewSingle(store))
	reg.Register(NewMultiQuery(store, llm))
	reg.Register(NewEnsemble(store))
	return reg
}
