// Package strategy implements the search strategy executors. Each executor
// issues one query against the search backend and returns its raw hits.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"payrag/config"
	"payrag/internal/domain"
	"payrag/internal/port"
)

// Filter keys that shape the request instead of being forwarded as filters.
const (
	FilterSearchType = "search_type"
	FilterReRanker   = "re_ranker"
)

type base struct {
	strategy domain.Strategy
	backend  port.SearchBackend
	cfg      config.SearchConfig
}

func (b *base) Strategy() domain.Strategy {
	return b.strategy
}

// buildRequest resolves search type and re-ranker (filters override config)
// and rejects combinations the backend would refuse.
func (b *base) buildRequest(query string, filters domain.Filters) (domain.SearchRequest, error) {
	component := string(b.strategy) + " executor"
	if b.backend == nil {
		return domain.SearchRequest{}, domain.NewConfigurationError(component, "search backend is not configured")
	}

	searchType := b.cfg.SearchType
	reRanker := b.cfg.ReRanker
	var forwarded domain.Filters
	for k, v := range filters {
		switch k {
		case FilterSearchType:
			if s, ok := v.(string); ok && s != "" {
				searchType = s
			}
		case FilterReRanker, "reRanker":
			if s, ok := v.(string); ok && s != "" {
				reRanker = s
			}
		default:
			if forwarded == nil {
				forwarded = make(domain.Filters, len(filters))
			}
			forwarded[k] = v
		}
	}

	searchType = strings.ToLower(strings.TrimSpace(searchType))
	reRanker = strings.TrimSpace(reRanker)
	switch searchType {
	case "":
		return domain.SearchRequest{}, domain.NewConfigurationError(component, "search_type is not set")
	case domain.SearchTypeSemantic, domain.SearchTypeKeyword, domain.SearchTypeHybrid:
	default:
		return domain.SearchRequest{}, domain.NewConfigurationError(component, "unsupported search_type %q", searchType)
	}
	if searchType == domain.SearchTypeHybrid && reRanker == "" {
		return domain.SearchRequest{}, domain.NewConfigurationError(component, "hybrid search requires a re_ranker")
	}

	return domain.SearchRequest{
		Query:      query,
		Limit:      b.cfg.DefaultSearchCount,
		Collection: b.cfg.Collection,
		SearchType: searchType,
		ReRanker:   reRanker,
		Fields:     b.cfg.Fields,
		Filters:    forwarded,
	}, nil
}

func (b *base) send(ctx context.Context, req domain.SearchRequest) ([]domain.RawHit, error) {
	hits, err := b.backend.Search(ctx, req)
	if err != nil {
		return nil, b.backendError(err)
	}
	return hits, nil
}

// backendError tags err with the strategy. Configuration errors pass through.
func (b *base) backendError(err error) error {
	if domain.IsConfiguration(err) {
		return err
	}
	var be *domain.SearchBackendError
	if errors.As(err, &be) {
		tagged := *be
		tagged.Strategy = b.strategy
		return &tagged
	}
	return &domain.SearchBackendError{Strategy: b.strategy, Err: err}
}

// Vector issues the user's query verbatim.
type Vector struct {
	base
}

// NewVector creates a vector strategy executor.
func NewVector(backend port.SearchBackend, cfg config.SearchConfig) *Vector {
	return &Vector{base{strategy: domain.StrategyVector, backend: backend, cfg: cfg}}
}

func (e *Vector) Execute(ctx context.Context, query string, filters domain.Filters) ([]domain.RawHit, error) {
	req, err := e.buildRequest(query, filters)
	if err != nil {
		return nil, err
	}
	return e.send(ctx, req)
}

// Question issues the user's question verbatim as a broad semantic pass.
// It differs from Vector only by its preset filters, which the caller's
// filters override key by key.
type Question struct {
	base
	presets domain.Filters
}

// NewQuestion creates a question strategy executor.
func NewQuestion(backend port.SearchBackend, cfg config.SearchConfig, presets map[string]any) *Question {
	return &Question{
		base:    base{strategy: domain.StrategyQuestion, backend: backend, cfg: cfg},
		presets: domain.Filters(presets),
	}
}

func (e *Question) Execute(ctx context.Context, query string, filters domain.Filters) ([]domain.RawHit, error) {
	merged := make(domain.Filters, len(e.presets)+len(filters))
	for k, v := range e.presets {
		merged[k] = v
	}
	for k, v := range filters {
		merged[k] = v
	}
	req, err := e.buildRequest(query, merged)
	if err != nil {
		return nil, err
	}
	return e.send(ctx, req)
}

// Keyword extracts keywords from the query and issues them as the query.
type Keyword struct {
	base
	extractor port.KeywordExtractor
}

// NewKeyword creates a keyword strategy executor.
func NewKeyword(backend port.SearchBackend, cfg config.SearchConfig, extractor port.KeywordExtractor) *Keyword {
	return &Keyword{
		base:      base{strategy: domain.StrategyKeyword, backend: backend, cfg: cfg},
		extractor: extractor,
	}
}

func (e *Keyword) Execute(ctx context.Context, query string, filters domain.Filters) ([]domain.RawHit, error) {
	// Validate before spending a model call on extraction.
	req, err := e.buildRequest(query, filters)
	if err != nil {
		return nil, err
	}
	if e.extractor == nil {
		return nil, domain.NewConfigurationError("keyword executor", "keyword extractor is not configured")
	}

	keywords, err := e.extractor.Extract(ctx, query)
	if err != nil {
		return nil, &domain.SearchBackendError{Strategy: e.strategy, Err: fmt.Errorf("keyword extraction: %w", err)}
	}
	req.Query = keywords
	return e.send(ctx, req)
}

// ForConfig builds one executor per strategy in declaration order.
func ForConfig(cfg *config.Config, backend port.SearchBackend, extractor port.KeywordExtractor) []port.StrategyExecutor {
	return []port.StrategyExecutor{
		NewVector(backend, cfg.Search),
		NewKeyword(backend, cfg.Search, extractor),
		NewQuestion(backend, cfg.Search, cfg.Strategies.QuestionFilters),
	}
}
