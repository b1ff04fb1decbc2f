package domain

import "fmt"

// RawHit is one hit as returned by the search backend. Field names drift
// between backend response versions, so it stays untyped until normalized.
type RawHit map[string]any

// Filters is the optional filter mapping forwarded to the search backend.
type Filters map[string]any

// Strategy identifies one retrieval method run independently per query.
type Strategy string

const (
	StrategyVector   Strategy = "vector"
	StrategyKeyword  Strategy = "keyword"
	StrategyQuestion Strategy = "question"
)

// Strategies lists every strategy in declaration order.
var Strategies = []Strategy{StrategyVector, StrategyKeyword, StrategyQuestion}

// Search types accepted by the backend.
const (
	SearchTypeSemantic = "semantic"
	SearchTypeKeyword  = "keyword"
	SearchTypeHybrid   = "hybrid"
)

// UnknownDocument is the document name used when neither a name nor a
// usable link is present on a hit.
const UnknownDocument = "Unknown Document"

// UntitledSection is the last-resort section name.
const UntitledSection = "Untitled Section"

// SearchRequest is the body of one search backend call.
type SearchRequest struct {
	Query      string   `json:"query"`
	Limit      int      `json:"limit"`
	Collection string   `json:"collection"`
	SearchType string   `json:"search_type"`
	ReRanker   string   `json:"reRanker,omitempty"`
	Fields     []string `json:"fields,omitempty"`
	Filters    Filters  `json:"filters,omitempty"`
}

// CandidateDocument is a normalized retrievable passage. It is not mutated
// after normalization.
type CandidateDocument struct {
	DocumentName    string   `json:"document_name"`
	DocumentLink    string   `json:"document_link,omitempty"`
	SectionName     string   `json:"section_name"`
	SectionLink     string   `json:"section_link,omitempty"`
	Content         string   `json:"content"`
	Page            *int     `json:"page,omitempty"`
	CitationIndex   *int     `json:"citation_index,omitempty"`
	CitationIndices []int    `json:"citation_indices"`
	Score           float64  `json:"score"`
	RerankerScore   *float64 `json:"reranker_score,omitempty"`
	Reference       string   `json:"reference"`
	Strategy        Strategy `json:"strategy,omitempty"`
}

// CandidateKey identifies one logical chunk for deduplication.
type CandidateKey struct {
	DocumentName string
	Page         int
	HasPage      bool
	Content      string
}

// Key returns the identity key (document name, page, content).
func (c CandidateDocument) Key() CandidateKey {
	k := CandidateKey{DocumentName: c.DocumentName, Content: c.Content}
	if c.Page != nil {
		k.Page = *c.Page
		k.HasPage = true
	}
	return k
}

// PageLabel renders the page for prompts, or "N/A" when unknown.
func (c CandidateDocument) PageLabel() string {
	if c.Page == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *c.Page)
}

// SearchStrategyResult is one strategy's normalized output. Err is set when
// the strategy failed; Candidates is empty in that case.
type SearchStrategyResult struct {
	Strategy   Strategy
	Candidates []CandidateDocument
	Err        error
}

// RankedPool is the deduplicated, score-sorted candidate set for one query.
type RankedPool []CandidateDocument

// SelectionOutcome is the bounded document set handed to answer assembly.
type SelectionOutcome struct {
	Documents  []CandidateDocument
	Considered int // candidates shown to the picker
	Matched    int // documents reconciled from the picker's output
	Filled     int // documents appended by the minimum-count guarantee
}

// Chunk is one numbered passage handed to answer generation.
type Chunk struct {
	ReferenceID  int     `json:"reference_id"`
	DocumentName string  `json:"document_name"`
	Page         *int    `json:"page,omitempty"`
	Content      string  `json:"content"`
	Reference    string  `json:"reference"`
	Score        float64 `json:"score"`
}

// Answer is the terminal output of one pipeline run.
type Answer struct {
	Query      string   `json:"query"`
	Chunks     []Chunk  `json:"chunks"`
	References []string `json:"references"`
	Warnings   []string `json:"warnings,omitempty"`
}
