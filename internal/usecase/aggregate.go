package usecase

import (
	"net/url"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"payrag/internal/domain"
	"payrag/internal/logging"
)

// Aggregator merges strategy results into one ranked pool.
type Aggregator struct {
	excludes []string
	logger   *zap.Logger
}

// NewAggregator creates an aggregator. excludes are doublestar patterns
// matched against each candidate's document name and link path.
func NewAggregator(excludes []string, logger *zap.Logger) *Aggregator {
	valid := make([]string, 0, len(excludes))
	logger = logging.OrNop(logger)
	for _, p := range excludes {
		if !doublestar.ValidatePattern(p) {
			logger.Warn("Ignoring invalid exclude pattern", zap.String("pattern", p))
			continue
		}
		valid = append(valid, p)
	}
	return &Aggregator{
		excludes: valid,
		logger:   logger,
	}
}

// Aggregate concatenates candidates in result order, drops excluded
// documents, keeps the first occurrence of each (name, page, content) key and
// sorts by score descending. Equal scores keep their merged order.
func (a *Aggregator) Aggregate(results []domain.SearchStrategyResult) domain.RankedPool {
	total := 0
	for _, r := range results {
		total += len(r.Candidates)
	}
	if total == 0 {
		return domain.RankedPool{}
	}

	seen := make(map[domain.CandidateKey]struct{}, total)
	pool := make(domain.RankedPool, 0, total)
	excluded := 0
	for _, r := range results {
		for _, c := range r.Candidates {
			if a.isExcluded(c) {
				excluded++
				continue
			}
			key := c.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			pool = append(pool, c)
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Score > pool[j].Score
	})

	a.logger.Debug("Aggregated candidates",
		zap.Int("candidates", total),
		zap.Int("excluded", excluded),
		zap.Int("pool", len(pool)))
	return pool
}

func (a *Aggregator) isExcluded(c domain.CandidateDocument) bool {
	if len(a.excludes) == 0 {
		return false
	}
	targets := []string{c.DocumentName}
	if c.DocumentLink != "" {
		if u, err := url.Parse(c.DocumentLink); err == nil && u.Path != "" {
			targets = append(targets, strings.TrimPrefix(u.Path, "/"))
		}
	}
	for _, pattern := range a.excludes {
		for _, target := range targets {
			if matched, err := doublestar.Match(pattern, target); err == nil && matched {
				return true
			}
		}
	}
	return false
}
