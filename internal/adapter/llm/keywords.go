package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"payrag/internal/adapter/analyzer"
	"payrag/internal/logging"
	"payrag/internal/port"
)

const keywordSystemPrompt = `You extract search keywords for a cross-border payments operations knowledge base.
Given a user's question, return the terms a keyword search engine needs to find the answer:
SWIFT message types and field numbers (e.g. MT103, Field 70), currency codes, country names,
regulatory terms, clearing and purpose codes.

Output ONLY the keywords separated by spaces on a single line. No explanations, no numbering.`

var listMarker = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s*`)

// ErrNoKeywords is returned when neither the model nor the local fallback
// produced any keyword.
var ErrNoKeywords = errors.New("no keywords extracted from query")

// KeywordExtractor derives a keyword query from a natural-language question.
// Model output is memoized per query; when the model fails, keywords are
// taken from the question itself with stopwords removed.
type KeywordExtractor struct {
	llm       port.LLM
	cache     *lru.Cache[string, string]
	tokenizer *analyzer.Tokenizer
	logger    *zap.Logger
}

// NewKeywordExtractor creates an extractor. llm may be nil, in which case
// only local extraction is used. cacheSize <= 0 disables memoization.
func NewKeywordExtractor(llm port.LLM, cacheSize int, logger *zap.Logger) (*KeywordExtractor, error) {
	e := &KeywordExtractor{
		llm:       llm,
		tokenizer: analyzer.NewTokenizer(),
		logger:    logging.OrNop(logger),
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, string](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create keyword cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

// Extract returns a space-separated keyword string for query.
func (e *KeywordExtractor) Extract(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrNoKeywords
	}

	if e.cache != nil {
		if kw, ok := e.cache.Get(query); ok {
			return kw, nil
		}
	}

	if e.llm != nil {
		userPrompt := fmt.Sprintf("Question: %s\n\nKeywords:", query)
		response, err := e.llm.GenerateWithSystem(ctx, keywordSystemPrompt, userPrompt)
		if err != nil {
			e.logger.Warn("Keyword extraction failed, using local terms",
				zap.String("model", e.llm.ModelName()),
				zap.Error(err))
		} else if kw := parseKeywords(response); kw != "" {
			if e.cache != nil {
				e.cache.Add(query, kw)
			}
			return kw, nil
		}
	}

	kw := e.localKeywords(query)
	if kw == "" {
		return "", ErrNoKeywords
	}
	return kw, nil
}

// localKeywords keeps the question's non-stopword terms in order, once each.
func (e *KeywordExtractor) localKeywords(query string) string {
	seen := make(map[string]struct{})
	var terms []string
	for _, tok := range e.tokenizer.Tokenize(query) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		terms = append(terms, tok)
	}
	return strings.Join(terms, " ")
}

// parseKeywords flattens a model response into one keyword line, dropping a
// leading "Keywords:" label, list markers and separators.
func parseKeywords(response string) string {
	var terms []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i := strings.Index(strings.ToLower(line), "keywords:"); i >= 0 {
			line = line[i+len("keywords:"):]
		}
		line = listMarker.ReplaceAllString(strings.TrimSpace(line), "")
		for _, part := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ';' }) {
			if part = strings.Trim(strings.TrimSpace(part), `"'`); part != "" {
				terms = append(terms, part)
			}
		}
	}
	return strings.Join(terms, " ")
}
