package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payrag/internal/domain"
)

func intPtr(n int) *int { return &n }

func cand(name string, page int, content string, score float64) domain.CandidateDocument {
	return domain.CandidateDocument{
		DocumentName: name,
		SectionName:  "Page",
		Content:      content,
		Page:         intPtr(page),
		Score:        score,
	}
}

func names(docs []domain.CandidateDocument) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.DocumentName)
	}
	return out
}

func TestAggregate_DedupFirstOccurrenceWins(t *testing.T) {
	first := cand("MT103 Guide", 4, "Field 70", 0.5)
	first.Strategy = domain.StrategyVector
	dup := cand("MT103 Guide", 4, "Field 70", 0.9)
	dup.Strategy = domain.StrategyKeyword

	a := NewAggregator(nil, nil)
	pool := a.Aggregate([]domain.SearchStrategyResult{
		{Strategy: domain.StrategyVector, Candidates: []domain.CandidateDocument{first}},
		{Strategy: domain.StrategyKeyword, Candidates: []domain.CandidateDocument{dup, cand("MT103 Guide", 5, "Field 71A", 0.3)}},
	})

	require.Len(t, pool, 2)
	assert.Equal(t, domain.StrategyVector, pool[0].Strategy)
	assert.Equal(t, 0.5, pool[0].Score)
	assert.Equal(t, 5, *pool[1].Page)
}

func TestAggregate_PageDistinguishesNilFromZero(t *testing.T) {
	noPage := cand("Doc", 0, "same", 0.1)
	noPage.Page = nil

	pool := NewAggregator(nil, nil).Aggregate([]domain.SearchStrategyResult{
		{Candidates: []domain.CandidateDocument{noPage, cand("Doc", 0, "same", 0.1)}},
	})
	assert.Len(t, pool, 2)
}

func TestAggregate_Idempotent(t *testing.T) {
	a := NewAggregator(nil, nil)
	input := []domain.CandidateDocument{
		cand("A", 1, "a", 0.3),
		cand("B", 1, "b", 0.9),
		cand("A", 1, "a", 0.3),
		cand("C", 2, "c", 0.3),
	}
	once := a.Aggregate([]domain.SearchStrategyResult{{Candidates: input}})
	twice := a.Aggregate([]domain.SearchStrategyResult{{Candidates: once}})

	assert.Equal(t, once, twice)
	assert.Equal(t, []string{"B", "A", "C"}, names(once))
}

func TestAggregate_StableForEqualScores(t *testing.T) {
	pool := NewAggregator(nil, nil).Aggregate([]domain.SearchStrategyResult{
		{Candidates: []domain.CandidateDocument{cand("first", 1, "1", 0.5), cand("second", 1, "2", 0.5)}},
		{Candidates: []domain.CandidateDocument{cand("third", 1, "3", 0.5), cand("top", 1, "4", 0.8)}},
	})
	assert.Equal(t, []string{"top", "first", "second", "third"}, names(pool))
}

func TestAggregate_Empty(t *testing.T) {
	pool := NewAggregator(nil, nil).Aggregate([]domain.SearchStrategyResult{
		{Strategy: domain.StrategyVector},
		{Strategy: domain.StrategyKeyword, Err: assert.AnError},
	})
	assert.NotNil(t, pool)
	assert.Empty(t, pool)

	assert.Empty(t, NewAggregator(nil, nil).Aggregate(nil))
}

func TestAggregate_Excludes(t *testing.T) {
	archived := cand("Old Cut-offs", 1, "x", 0.9)
	archived.DocumentLink = "https://kb.example.com/archive/2019/cutoffs.pdf"
	draft := cand("DRAFT FX policy", 1, "y", 0.8)
	kept := cand("MT103 Guide", 1, "z", 0.1)

	a := NewAggregator([]string{"archive/**", "DRAFT*", "[invalid"}, nil)
	pool := a.Aggregate([]domain.SearchStrategyResult{
		{Candidates: []domain.CandidateDocument{archived, draft, kept}},
	})
	assert.Equal(t, []string{"MT103 Guide"}, names(pool))
}
