package retrieval

import (
	"context"
	"fmt"

	"ccms/internal/domain"
)

// Request carries all parameters required to execute one retrieval.
type Request struct {
	Query  string
	Filter map[string]string
	Limit  int
	FetchK int
	Lambda float64
}

// Outcome is the raw strategy output before threshold, dedup and cap are applied.
type Outcome struct {
	Documents []domain.RetrievedDocument
	Queries   []string
}

// Strategy captures a single retrieval implementation (single, multi-query, ensemble).
type Strategy interface {
	Name() domain.RetrievalType
	Retrieve(ctx context.Context, req Request) (Outcome, error)
}

// Registry keeps a mapping from retrieval types to their implementations.
type Registry struct {
	strategies map[domain.RetrievalType]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[domain.RetrievalType]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[domain.RetrievalType]Strategy{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by type or an error if it is absent.
func (r *Registry) Resolve(name domain.RetrievalType) (Strategy, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("retrieval strategy %s is not registered", name)
}
