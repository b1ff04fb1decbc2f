package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"payrag/config"
	"payrag/internal/domain"
	"payrag/internal/logging"
	"payrag/internal/port"
)

// ErrEmptyQuery is returned when Run is called with a blank query.
var ErrEmptyQuery = errors.New("query is empty")

// Pipeline runs one query through orchestration, aggregation, selection and
// assembly.
type Pipeline struct {
	cfg          *config.Config
	orchestrator *Orchestrator
	aggregator   *Aggregator
	selector     *Selector
	assembler    *Assembler
	journal      port.Journal
	logger       *zap.Logger
}

// NewPipeline wires the pipeline stages from cfg. journal may be nil.
func NewPipeline(
	cfg *config.Config,
	executors []port.StrategyExecutor,
	picker port.DocumentPicker,
	journal port.Journal,
	logger *zap.Logger,
) *Pipeline {
	logger = logging.OrNop(logger)
	return &Pipeline{
		cfg:          cfg,
		orchestrator: NewOrchestrator(executors, logger),
		aggregator:   NewAggregator(cfg.Retrieve.ExcludeDocuments, logger),
		selector:     NewSelector(picker, cfg.Select.PreviewRunes, logger),
		assembler:    NewAssembler(cfg.Assemble.ChunkLimit),
		journal:      journal,
		logger:       logger,
	}
}

// Retrieve runs the enabled strategies and returns the ranked pool along with
// one warning per failed strategy.
func (p *Pipeline) Retrieve(ctx context.Context, query string, filters domain.Filters) (domain.RankedPool, []string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil, ErrEmptyQuery
	}

	results := p.orchestrator.Run(ctx, query, p.cfg.Strategies.EnabledStrategies(), filters)

	var warnings []string
	for _, r := range results {
		if r.Err != nil {
			warnings = append(warnings, fmt.Sprintf("%s search failed: %v", r.Strategy, r.Err))
		}
	}

	pool := p.aggregator.Aggregate(results)
	if len(pool) == 0 {
		p.logger.Warn("No search results", zap.String("query", query))
	}
	return pool, warnings, nil
}

// Frame retrieves candidates and renders the block the document picker sees.
func (p *Pipeline) Frame(ctx context.Context, query string, filters domain.Filters) (string, error) {
	pool, _, err := p.Retrieve(ctx, query, filters)
	if err != nil {
		return "", err
	}
	_, block := p.selector.Frame(pool, p.cfg.Select.MaxDocumentsConsidered)
	return block, nil
}

// Run answers one query. Strategy failures surface as warnings on the
// answer; only a blank query is an error.
func (p *Pipeline) Run(ctx context.Context, query string, filters domain.Filters) (domain.Answer, error) {
	pool, warnings, err := p.Retrieve(ctx, query, filters)
	if err != nil {
		return domain.Answer{}, err
	}
	query = strings.TrimSpace(query)

	outcome := p.selector.Select(ctx, pool, query,
		p.cfg.Select.MaxDocumentsConsidered, p.cfg.Select.MinPickedDocuments)

	answer := p.assembler.Assemble(outcome)
	answer.Query = query
	answer.Warnings = warnings

	p.logger.Info("Query answered",
		zap.String("query", query),
		zap.Int("pool", len(pool)),
		zap.Int("chunks", len(answer.Chunks)),
		zap.Int("warnings", len(warnings)))

	if p.journal != nil {
		if _, err := p.journal.Record(query, answer, outcome, len(pool)); err != nil {
			p.logger.Warn("Failed to record run", zap.Error(err))
		}
	}

	return answer, nil
}
