package port

import (
	"context"

	"payrag/internal/domain"
)

// SearchBackend issues one query against the external search service.
type SearchBackend interface {
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.RawHit, error)
}

// StrategyExecutor runs one retrieval strategy and returns its raw hits.
type StrategyExecutor interface {
	Strategy() domain.Strategy

	Execute(ctx context.Context, query string, filters domain.Filters) ([]domain.RawHit, error)
}
