package llm

import (
	"context"
	"fmt"

	"payrag/internal/port"
)

// selectionSystemPrompt frames the model as an FX operations reviewer and
// pins the output to one "Document: {title} (Page: {page})" line per pick.
const selectionSystemPrompt = `You are a senior FX operations expert for cross-border payments and SWIFT messaging.
Review the document chunks below and select ONLY those strictly relevant to the user's query.

DOMAIN CONTEXT:
The documents hold payment guides, MT103 formatting rules, currency-specific regulations
(purpose codes, tax IDs) and cut-off times.

SELECTION RULES:
1. Prefer chunks with concrete field specifications (Field 50, 70, 72), onshore/offshore
   currency restrictions, regulatory requirements, or banking and clearing codes.
2. If the query names a currency (INR, BRL) or country, select only chunks that reference it.
3. Skip marketing text and generic overviews unless the query is broad.
4. Titles you return MUST match the input exactly.

INPUT FORMAT:
Document: [Title] (Page: [Page])
Content Preview: [Text]...

OUTPUT FORMAT (STRICT):
Return only the selected documents, one per line, in exactly this form:
Document: [Title] (Page: [Page])`

// DocumentPicker asks the model which framed candidates answer the query.
type DocumentPicker struct {
	llm port.LLM
}

// NewDocumentPicker creates a picker backed by llm.
func NewDocumentPicker(llm port.LLM) *DocumentPicker {
	return &DocumentPicker{llm: llm}
}

// SelectionPrompt returns the system and user prompts sent for one pick.
func SelectionPrompt(candidates, query string) (system, user string) {
	user = fmt.Sprintf("User query: %s\n\nCandidate documents:\n%s\nSelected documents:", query, candidates)
	return selectionSystemPrompt, user
}

// Pick returns the model's raw selection text.
func (p *DocumentPicker) Pick(ctx context.Context, candidates, query string) (string, error) {
	if p.llm == nil {
		return "", fmt.Errorf("document picker has no model configured")
	}
	system, user := SelectionPrompt(candidates, query)
	return p.llm.GenerateWithSystem(ctx, system, user)
}
