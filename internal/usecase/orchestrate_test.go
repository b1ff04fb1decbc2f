package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"payrag/internal/domain"
	"payrag/internal/port"
)

type fakeExecutor struct {
	strategy domain.Strategy
	hits     []domain.RawHit
	err      error
	delay    time.Duration
	panicMsg string
	calls    atomic.Int32
	query    atomic.Value
}

func (f *fakeExecutor) Strategy() domain.Strategy { return f.strategy }

func (f *fakeExecutor) Execute(ctx context.Context, query string, _ domain.Filters) ([]domain.RawHit, error) {
	f.calls.Add(1)
	f.query.Store(query)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.hits, f.err
}

func hit(name string, page int, content string, score float64) domain.RawHit {
	return domain.RawHit{
		"document_name": name,
		"page":          page,
		"content":       content,
		"score":         score,
	}
}

func observed(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

func TestOrchestrator_FanOutIsolation(t *testing.T) {
	vector := &fakeExecutor{strategy: domain.StrategyVector, hits: []domain.RawHit{hit("MT103 Guide", 4, "Field 70 holds remittance info", 0.9)}}
	keyword := &fakeExecutor{strategy: domain.StrategyKeyword, err: &domain.SearchBackendError{Strategy: domain.StrategyKeyword, StatusCode: 502, Err: errors.New("bad gateway")}}
	question := &fakeExecutor{strategy: domain.StrategyQuestion, hits: []domain.RawHit{hit("Cut-off Times", 2, "USD cut-off is 17:00 ET", 0.7)}}

	logger, logs := observed(zapcore.WarnLevel)
	o := NewOrchestrator([]port.StrategyExecutor{vector, keyword, question}, logger)

	results := o.Run(context.Background(), "what is field 70", domain.Strategies, nil)
	require.Len(t, results, 3)

	assert.Equal(t, domain.StrategyVector, results[0].Strategy)
	assert.NoError(t, results[0].Err)
	require.Len(t, results[0].Candidates, 1)
	assert.Equal(t, "MT103 Guide", results[0].Candidates[0].DocumentName)
	assert.Equal(t, domain.StrategyVector, results[0].Candidates[0].Strategy)

	assert.Equal(t, domain.StrategyKeyword, results[1].Strategy)
	assert.True(t, domain.IsSearchBackend(results[1].Err))
	assert.Empty(t, results[1].Candidates)

	assert.NoError(t, results[2].Err)
	require.Len(t, results[2].Candidates, 1)

	assert.Equal(t, 1, logs.FilterMessage("Search strategy failed").Len())
	assert.Equal(t, 0, logs.FilterMessage("All search strategies failed").Len())
}

func TestOrchestrator_DeclarationOrderRegardlessOfCompletion(t *testing.T) {
	vector := &fakeExecutor{strategy: domain.StrategyVector, delay: 30 * time.Millisecond}
	keyword := &fakeExecutor{strategy: domain.StrategyKeyword, delay: 10 * time.Millisecond}
	question := &fakeExecutor{strategy: domain.StrategyQuestion}

	o := NewOrchestrator([]port.StrategyExecutor{question, keyword, vector}, nil)
	enabled := []domain.Strategy{domain.StrategyQuestion, domain.StrategyVector, domain.StrategyKeyword, domain.StrategyVector}

	results := o.Run(context.Background(), "q", enabled, nil)
	require.Len(t, results, 3)
	assert.Equal(t, domain.StrategyVector, results[0].Strategy)
	assert.Equal(t, domain.StrategyKeyword, results[1].Strategy)
	assert.Equal(t, domain.StrategyQuestion, results[2].Strategy)
	assert.Equal(t, int32(1), vector.calls.Load())
}

func TestOrchestrator_SubsetOnlyRunsEnabled(t *testing.T) {
	vector := &fakeExecutor{strategy: domain.StrategyVector}
	keyword := &fakeExecutor{strategy: domain.StrategyKeyword}

	o := NewOrchestrator([]port.StrategyExecutor{vector, keyword}, nil)
	results := o.Run(context.Background(), "q", []domain.Strategy{domain.StrategyKeyword}, nil)

	require.Len(t, results, 1)
	assert.Equal(t, domain.StrategyKeyword, results[0].Strategy)
	assert.Equal(t, int32(0), vector.calls.Load())
}

func TestOrchestrator_EmptyStrategies(t *testing.T) {
	vector := &fakeExecutor{strategy: domain.StrategyVector}
	logger, logs := observed(zapcore.WarnLevel)

	o := NewOrchestrator([]port.StrategyExecutor{vector}, logger)
	results := o.Run(context.Background(), "q", nil, nil)

	assert.Empty(t, results)
	assert.Equal(t, int32(0), vector.calls.Load())
	assert.Equal(t, 1, logs.FilterMessage("No search strategies enabled").Len())
}

func TestOrchestrator_AllFailed(t *testing.T) {
	vector := &fakeExecutor{strategy: domain.StrategyVector, err: errors.New("boom")}
	keyword := &fakeExecutor{strategy: domain.StrategyKeyword, err: errors.New("boom")}
	logger, logs := observed(zapcore.WarnLevel)

	o := NewOrchestrator([]port.StrategyExecutor{vector, keyword}, logger)
	results := o.Run(context.Background(), "q", []domain.Strategy{domain.StrategyVector, domain.StrategyKeyword}, nil)

	require.Len(t, results, 2)
	assert.Equal(t, 2, logs.FilterMessage("Search strategy failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("All search strategies failed").Len())
}

func TestOrchestrator_RecoversPanic(t *testing.T) {
	vector := &fakeExecutor{strategy: domain.StrategyVector, panicMsg: "nil map"}
	question := &fakeExecutor{strategy: domain.StrategyQuestion, hits: []domain.RawHit{hit("FX Rules", 1, "x", 0.1)}}

	o := NewOrchestrator([]port.StrategyExecutor{vector, question}, nil)
	results := o.Run(context.Background(), "q", []domain.Strategy{domain.StrategyVector, domain.StrategyQuestion}, nil)

	require.Len(t, results, 2)
	assert.True(t, domain.IsSearchBackend(results[0].Err))
	assert.Contains(t, results[0].Err.Error(), "nil map")
	assert.Len(t, results[1].Candidates, 1)
}

func TestOrchestrator_MissingExecutor(t *testing.T) {
	o := NewOrchestrator(nil, nil)
	results := o.Run(context.Background(), "q", []domain.Strategy{domain.StrategyKeyword}, nil)

	require.Len(t, results, 1)
	assert.True(t, domain.IsConfiguration(results[0].Err))
}
