package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"payrag/internal/domain"
	"payrag/internal/port"
)

var (
	bucketRuns  = []byte("runs")    // sequence -> record
	bucketIndex = []byte("run_ids") // record id -> sequence
)

// BoltJournal persists pipeline runs in a bbolt file.
type BoltJournal struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewBoltJournal opens (or creates) the journal at path.
func NewBoltJournal(path string) (*BoltJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal dir: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketRuns, bucketIndex} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltJournal{db: db, now: time.Now}, nil
}

// Record stores a summary of one run and returns it.
func (j *BoltJournal) Record(query string, answer domain.Answer, outcome domain.SelectionOutcome, poolSize int) (port.RunRecord, error) {
	rec := port.RunRecord{
		ID:         uuid.NewString(),
		Query:      query,
		At:         j.now().UTC(),
		References: answer.References,
		Warnings:   answer.Warnings,
		PoolSize:   poolSize,
		Matched:    outcome.Matched,
		Filled:     outcome.Filled,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return port.RunRecord{}, err
	}

	err = j.db.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		seq, err := runs.NextSequence()
		if err != nil {
			return err
		}
		key := seqKey(seq)
		if err := runs.Put(key, data); err != nil {
			return err
		}
		return tx.Bucket(bucketIndex).Put([]byte(rec.ID), key)
	})
	if err != nil {
		return port.RunRecord{}, fmt.Errorf("failed to record run: %w", err)
	}
	return rec, nil
}

// List returns up to limit records, newest first. limit <= 0 returns all.
func (j *BoltJournal) List(limit int) ([]port.RunRecord, error) {
	var records []port.RunRecord
	err := j.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(records) >= limit {
				break
			}
			var rec port.RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

// Get returns the record with the given id.
func (j *BoltJournal) Get(id string) (port.RunRecord, error) {
	var rec port.RunRecord
	err := j.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketIndex).Get([]byte(id))
		if key == nil {
			return fmt.Errorf("run not found: %s", id)
		}
		data := tx.Bucket(bucketRuns).Get(key)
		if data == nil {
			return fmt.Errorf("run not found: %s", id)
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}

// Close closes the underlying database.
func (j *BoltJournal) Close() error {
	return j.db.Close()
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
