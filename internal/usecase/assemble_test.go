package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payrag/internal/domain"
)

func TestAssemble_NumbersAndReferences(t *testing.T) {
	noPage := cand("Currency Regulations", 0, "BRL requires purpose code", 0.4)
	noPage.Page = nil
	noPage.Reference = "Currency Regulations ▸ Brazil"

	answer := NewAssembler(0).Assemble(domain.SelectionOutcome{
		Documents: []domain.CandidateDocument{cand("MT103 Guide", 4, "Field 70", 0.9), noPage},
	})

	require.Len(t, answer.Chunks, 2)
	assert.Equal(t, 1, answer.Chunks[0].ReferenceID)
	assert.Equal(t, 2, answer.Chunks[1].ReferenceID)
	assert.Equal(t, "Currency Regulations ▸ Brazil", answer.Chunks[1].Reference)
	assert.Equal(t, []string{"[1] MT103 Guide, p. 4", "[2] Currency Regulations"}, answer.References)
}

func TestAssemble_ChunkLimit(t *testing.T) {
	docs := []domain.CandidateDocument{
		cand("A", 1, "a", 0.1),
		cand("B", 2, "b", 0.9),
		cand("C", 3, "c", 0.5),
	}
	answer := NewAssembler(2).Assemble(domain.SelectionOutcome{Documents: docs})

	require.Len(t, answer.Chunks, 2)
	assert.Equal(t, "A", answer.Chunks[0].DocumentName)
	assert.Equal(t, "B", answer.Chunks[1].DocumentName)
	assert.Len(t, answer.References, 2)
}

func TestAssemble_Empty(t *testing.T) {
	answer := NewAssembler(8).Assemble(domain.SelectionOutcome{})
	assert.NotNil(t, answer.Chunks)
	assert.NotNil(t, answer.References)
	assert.Empty(t, answer.Chunks)
}
