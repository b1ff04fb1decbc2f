package usecase

import (
	"fmt"

	"payrag/internal/domain"
)

// Assembler turns a selection into numbered chunks and reference lines.
type Assembler struct {
	chunkLimit int
}

// NewAssembler creates an assembler. chunkLimit <= 0 keeps every document.
func NewAssembler(chunkLimit int) *Assembler {
	return &Assembler{chunkLimit: chunkLimit}
}

// Assemble truncates the selection to the chunk limit, preserving order, and
// numbers the result from 1.
func (a *Assembler) Assemble(outcome domain.SelectionOutcome) domain.Answer {
	docs := outcome.Documents
	if a.chunkLimit > 0 && len(docs) > a.chunkLimit {
		docs = docs[:a.chunkLimit]
	}

	answer := domain.Answer{
		Chunks:     make([]domain.Chunk, 0, len(docs)),
		References: make([]string, 0, len(docs)),
	}
	for i, d := range docs {
		id := i + 1
		answer.Chunks = append(answer.Chunks, domain.Chunk{
			ReferenceID:  id,
			DocumentName: d.DocumentName,
			Page:         d.Page,
			Content:      d.Content,
			Reference:    d.Reference,
			Score:        d.Score,
		})
		answer.References = append(answer.References, ReferenceLine(id, d))
	}
	return answer
}

// ReferenceLine renders "[i] name, p. N", or "[i] name" without a page.
func ReferenceLine(id int, d domain.CandidateDocument) string {
	if d.Page != nil {
		return fmt.Sprintf("[%d] %s, p. %d", id, d.DocumentName, *d.Page)
	}
	return fmt.Sprintf("[%d] %s", id, d.DocumentName)
}
