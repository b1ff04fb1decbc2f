package port

import "context"

// LLM represents a language model for text generation.
type LLM interface {
	// GenerateWithSystem generates text with a system prompt.
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// KeywordExtractor turns a natural-language query into a keyword query string.
type KeywordExtractor interface {
	Extract(ctx context.Context, query string) (string, error)
}

// DocumentPicker chooses documents from a framed candidate block.
// The response is newline-delimited "Document: {title} (Page: {page})" lines.
type DocumentPicker interface {
	Pick(ctx context.Context, candidates, query string) (string, error)
}
