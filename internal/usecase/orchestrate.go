package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"payrag/internal/adapter/normalizer"
	"payrag/internal/domain"
	"payrag/internal/logging"
	"payrag/internal/port"
)

// Orchestrator runs the enabled strategy executors concurrently and joins
// their normalized results.
type Orchestrator struct {
	executors map[domain.Strategy]port.StrategyExecutor
	logger    *zap.Logger
}

// NewOrchestrator creates an orchestrator over the given executors.
func NewOrchestrator(executors []port.StrategyExecutor, logger *zap.Logger) *Orchestrator {
	byStrategy := make(map[domain.Strategy]port.StrategyExecutor, len(executors))
	for _, e := range executors {
		byStrategy[e.Strategy()] = e
	}
	return &Orchestrator{
		executors: byStrategy,
		logger:    logging.OrNop(logger),
	}
}

// Run executes every enabled strategy and waits for all of them. A failing
// strategy never cancels its siblings: its result carries Err and no
// candidates. Results come back in declaration order, not completion order.
// An empty enabled set yields no results.
func (o *Orchestrator) Run(ctx context.Context, query string, enabled []domain.Strategy, filters domain.Filters) []domain.SearchStrategyResult {
	ordered := declarationOrder(enabled)
	if len(ordered) == 0 {
		o.logger.Warn("No search strategies enabled")
		return nil
	}

	results := make([]domain.SearchStrategyResult, len(ordered))

	// Goroutines never return an error to the group, so one failure cannot
	// cancel the others; Wait is a plain barrier.
	var g errgroup.Group
	for i, st := range ordered {
		i, st := i, st
		g.Go(func() error {
			results[i] = o.runOne(ctx, st, query, filters)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		failed++
		o.logger.Warn("Search strategy failed",
			zap.String("strategy", string(r.Strategy)),
			zap.Error(r.Err))
	}
	if failed == len(results) {
		o.logger.Warn("All search strategies failed", zap.Int("strategies", failed))
	}

	return results
}

func (o *Orchestrator) runOne(ctx context.Context, st domain.Strategy, query string, filters domain.Filters) (result domain.SearchStrategyResult) {
	result.Strategy = st

	defer func() {
		if r := recover(); r != nil {
			result.Candidates = nil
			result.Err = &domain.SearchBackendError{Strategy: st, Err: fmt.Errorf("executor panic: %v", r)}
		}
	}()

	exec, ok := o.executors[st]
	if !ok {
		result.Err = domain.NewConfigurationError("orchestrator", "no executor registered for strategy %q", st)
		return result
	}

	hits, err := exec.Execute(ctx, query, filters)
	if err != nil {
		result.Err = err
		return result
	}

	candidates := normalizer.Normalize(hits)
	for i := range candidates {
		candidates[i].Strategy = st
	}
	result.Candidates = candidates

	o.logger.Debug("Search strategy completed",
		zap.String("strategy", string(st)),
		zap.Int("hits", len(hits)))
	return result
}

// declarationOrder sorts enabled strategies into declaration order and drops
// duplicates. Unknown strategies keep their relative order after known ones.
func declarationOrder(enabled []domain.Strategy) []domain.Strategy {
	want := make(map[domain.Strategy]bool, len(enabled))
	for _, st := range enabled {
		want[st] = true
	}

	ordered := make([]domain.Strategy, 0, len(want))
	for _, st := range domain.Strategies {
		if want[st] {
			ordered = append(ordered, st)
			delete(want, st)
		}
	}
	for _, st := range enabled {
		if want[st] {
			ordered = append(ordered, st)
			delete(want, st)
		}
	}
	return ordered
}
