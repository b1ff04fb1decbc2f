package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"payrag/internal/adapter/normalizer"
	"payrag/internal/domain"
	"payrag/internal/logging"
	"payrag/internal/port"
)

const defaultPreviewRunes = 200

// Selector narrows a ranked pool to the documents handed to answer
// generation: an external free-text pick reconciled against the candidates,
// followed by a minimum-count fill from the top of the ranking.
type Selector struct {
	picker       port.DocumentPicker
	previewRunes int
	logger       *zap.Logger
}

// NewSelector creates a selector. picker may be nil, in which case every
// selection is made by the minimum-count fill alone.
func NewSelector(picker port.DocumentPicker, previewRunes int, logger *zap.Logger) *Selector {
	if previewRunes <= 0 {
		previewRunes = defaultPreviewRunes
	}
	return &Selector{
		picker:       picker,
		previewRunes: previewRunes,
		logger:       logging.OrNop(logger),
	}
}

// Frame returns the top maxConsidered candidates (all when maxConsidered <= 0)
// and their rendered overview block.
func (s *Selector) Frame(pool domain.RankedPool, maxConsidered int) ([]domain.CandidateDocument, string) {
	framed := []domain.CandidateDocument(pool)
	if maxConsidered > 0 && len(framed) > maxConsidered {
		framed = framed[:maxConsidered]
	}

	var sb strings.Builder
	for _, c := range framed {
		sb.WriteString(OverviewLine(c))
		sb.WriteString("\n")
		sb.WriteString("Content Preview: ")
		sb.WriteString(normalizer.Preview(c.Content, s.previewRunes))
		sb.WriteString("\n\n")
	}
	return framed, sb.String()
}

// OverviewLine renders "Document: {name} (Page: {page})".
func OverviewLine(c domain.CandidateDocument) string {
	return fmt.Sprintf("Document: %s (Page: %s)", c.DocumentName, c.PageLabel())
}

// Select never fails: picker errors and unmatched lines only shrink the
// matched set, and the minimum fill tops it up to minRequired documents or
// as many as were framed.
func (s *Selector) Select(ctx context.Context, pool domain.RankedPool, query string, maxConsidered, minRequired int) domain.SelectionOutcome {
	framed, block := s.Frame(pool, maxConsidered)
	outcome := domain.SelectionOutcome{
		Documents:  []domain.CandidateDocument{},
		Considered: len(framed),
	}
	if len(framed) == 0 {
		return outcome
	}

	var response string
	if s.picker != nil {
		var err error
		response, err = s.picker.Pick(ctx, block, query)
		if err != nil {
			s.logger.Warn("Document selection failed, using top-ranked documents", zap.Error(err))
			response = ""
		}
	}

	included := make(map[int]bool, len(framed))
	for _, idx := range s.matchPicks(framed, response) {
		included[idx] = true
		outcome.Documents = append(outcome.Documents, framed[idx])
	}
	outcome.Matched = len(outcome.Documents)

	for i := range framed {
		if len(outcome.Documents) >= minRequired {
			break
		}
		if included[i] {
			continue
		}
		included[i] = true
		outcome.Documents = append(outcome.Documents, framed[i])
		outcome.Filled++
	}

	s.logger.Debug("Selected documents",
		zap.Int("considered", outcome.Considered),
		zap.Int("matched", outcome.Matched),
		zap.Int("filled", outcome.Filled))
	return outcome
}

type pickKey struct {
	name string
	page string
}

// matchPicks maps each response line to the first framed candidate, in
// ranking order, whose name is a substring of the line. Lines that match
// nothing, or resolve to an already picked (name, page), are dropped.
func (s *Selector) matchPicks(framed []domain.CandidateDocument, response string) []int {
	var picks []int
	picked := make(map[pickKey]bool)

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		idx := matchLine(framed, line)
		if idx < 0 {
			s.logger.Debug("Dropping unmatched selection line", zap.String("line", line))
			continue
		}
		key := pickKey{name: framed[idx].DocumentName, page: framed[idx].PageLabel()}
		if picked[key] {
			continue
		}
		picked[key] = true
		picks = append(picks, idx)
	}
	return picks
}

func matchLine(framed []domain.CandidateDocument, line string) int {
	for i, c := range framed {
		if c.DocumentName != "" && strings.Contains(line, c.DocumentName) {
			return i
		}
	}
	return -1
}
