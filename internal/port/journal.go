package port

import (
	"time"

	"payrag/internal/domain"
)

// RunRecord is a persisted summary of one pipeline run.
type RunRecord struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	At         time.Time `json:"at"`
	References []string  `json:"references"`
	Warnings   []string  `json:"warnings,omitempty"`
	PoolSize   int       `json:"pool_size"`
	Matched    int       `json:"matched"`
	Filled     int       `json:"filled"`
}

// Journal records pipeline runs for later inspection.
type Journal interface {
	Record(query string, answer domain.Answer, outcome domain.SelectionOutcome, poolSize int) (RunRecord, error)

	List(limit int) ([]RunRecord, error)

	Get(id string) (RunRecord, error)

	Close() error
}
