// Package normalizer converts raw search backend hits into CandidateDocuments.
//
// Backend responses drift between versions (a title may arrive as "title" or
// not at all, passage text as "content", "snippet" or "text"). Every field is
// resolved through a fixed alias table and every coercion fails soft: a bad
// value yields the field default, never an error.
package normalizer

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"

	"payrag/internal/domain"
)

// previewRunes is the content length used when a section name has to be
// derived from the passage itself.
const previewRunes = 80

// Alias table: canonical field -> backend field names, in lookup order.
var (
	documentNameKeys    = []string{"document_name", "documentName", "title", "documentTitle"}
	documentLinkKeys    = []string{"document_link", "documentLink", "hyperlink", "link", "url"}
	sectionNameKeys     = []string{"section_name", "sectionName", "sectionTitle", "section_title"}
	sectionLinkKeys     = []string{"section_link", "sectionLink", "sectionHyperlink"}
	contentKeys         = []string{"content", "snippet", "text", "chunk"}
	pageKeys            = []string{"page", "pageNumber", "page_number"}
	citationIndexKeys   = []string{"citation_index", "citationIndex"}
	citationIndicesKeys = []string{"citation_indices", "citationIndices", "citationIndexs", "citationIndex"}
	scoreKeys           = []string{"score", "@search.score", "similarity"}
	rerankerScoreKeys   = []string{"reranker_score", "rerank_score", "rerankerScore", "@search.rerankerScore"}
)

// Normalize converts hits into candidates, preserving order.
func Normalize(hits []domain.RawHit) []domain.CandidateDocument {
	docs := make([]domain.CandidateDocument, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, NormalizeHit(hit))
	}
	return docs
}

// NormalizeHit converts one hit. DocumentName and SectionName are always
// non-empty and Score is always finite on the result.
func NormalizeHit(hit domain.RawHit) domain.CandidateDocument {
	doc := domain.CandidateDocument{
		DocumentLink: stringField(hit, documentLinkKeys),
		SectionLink:  stringField(hit, sectionLinkKeys),
		Content:      stringField(hit, contentKeys),
	}

	doc.DocumentName = stringField(hit, documentNameKeys)
	if doc.DocumentName == "" {
		doc.DocumentName = nameFromLink(doc.DocumentLink)
	}
	if doc.DocumentName == "" {
		doc.DocumentName = domain.UnknownDocument
	}

	doc.CitationIndices = citationIndices(hit)
	if n, ok := intField(hit, citationIndexKeys); ok {
		doc.CitationIndex = &n
	}

	if n, ok := intField(hit, pageKeys); ok && n >= 0 {
		doc.Page = &n
	}
	// Assumes the first citation index is page-bearing; nothing verifies it.
	if doc.Page == nil && len(doc.CitationIndices) > 0 && doc.CitationIndices[0] >= 0 {
		first := doc.CitationIndices[0]
		doc.Page = &first
	}

	doc.SectionName = sectionName(stringField(hit, sectionNameKeys), doc.Page, doc.Content)

	if f, ok := floatField(hit, scoreKeys); ok {
		doc.Score = f
	}
	if f, ok := floatField(hit, rerankerScoreKeys); ok {
		doc.RerankerScore = &f
	}

	doc.Reference = Reference(doc.DocumentName, doc.SectionName, doc.Page)
	return doc
}

// Reference composes "{document} ▸ {section}" with " (p.{page})" appended
// when the page is known.
func Reference(documentName, sectionName string, page *int) string {
	ref := documentName + " ▸ " + sectionName
	if page != nil {
		ref += fmt.Sprintf(" (p.%d)", *page)
	}
	return ref
}

func sectionName(title string, page *int, content string) string {
	if title != "" {
		return title
	}
	if page != nil {
		return fmt.Sprintf("Page %d", *page)
	}
	if preview := Preview(content, previewRunes); preview != "" {
		return preview
	}
	return domain.UntitledSection
}

// Preview returns the first n runes of the trimmed text, with "..." appended
// when the text was cut.
func Preview(text string, n int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}

// nameFromLink derives a document name from the link's path basename, or
// from its host when the path is empty. Returns "" when the link is not an
// absolute URL.
func nameFromLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
		return base
	}
	return u.Hostname()
}

// intField returns the first alias whose value coerces to an int.
func intField(hit domain.RawHit, keys []string) (int, bool) {
	for _, k := range keys {
		if v, ok := hit[k]; ok && v != nil {
			if n, ok := toInt(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// floatField returns the first alias whose value coerces to a finite float.
func floatField(hit domain.RawHit, keys []string) (float64, bool) {
	for _, k := range keys {
		if v, ok := hit[k]; ok && v != nil {
			if f, ok := toFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func lookup(hit domain.RawHit, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := hit[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(hit domain.RawHit, keys []string) string {
	for _, k := range keys {
		v, ok := hit[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case float64, int, int64:
			s = fmt.Sprint(t)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func citationIndices(hit domain.RawHit) []int {
	out := []int{}
	v, ok := lookup(hit, citationIndicesKeys)
	if !ok {
		return out
	}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if n, ok := toInt(item); ok {
				out = append(out, n)
			}
		}
	case []int:
		out = append(out, t...)
	case []float64:
		for _, f := range t {
			if n, ok := toInt(f); ok {
				out = append(out, n)
			}
		}
	case []string:
		for _, s := range t {
			if n, ok := toInt(s); ok {
				out = append(out, n)
			}
		}
	case string:
		fields := strings.FieldsFunc(strings.Trim(t, "[]"), func(r rune) bool {
			return r == ',' || r == ' ' || r == ';'
		})
		for _, f := range fields {
			if n, ok := toInt(f); ok {
				out = append(out, n)
			}
		}
	default:
		if n, ok := toInt(t); ok {
			out = append(out, n)
		}
	}
	return out
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return intInRange(int64(t))
	case int32:
		return int(t), true
	case int64:
		return intInRange(t)
	case float32:
		return floatToInt(float64(t))
	case float64:
		return floatToInt(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return intInRange(n)
		}
		if f, err := t.Float64(); err == nil {
			return floatToInt(f)
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return intInRange(n)
		}
	}
	return 0, false
}

// Page and citation numbers are bounded to int32 so a corrupt value never
// becomes an arbitrary platform-dependent int.
func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func intInRange(n int64) (int, bool) {
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, false
	}
	return int(n), true
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
