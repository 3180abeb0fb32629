// Package journal keeps a local, append-only audit trail of destructive
// batch runs in a BadgerDB store. It records outcomes only; it never caches
// graph state, so every scan still starts from a fresh remote read.
package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/soundprediction/go-graphkeeper/pkg/executor"
)

const recordPrefix = "batch/"

// Record is one audited batch run.
type Record struct {
	ID      string           `json:"id"`
	Action  string           `json:"action"`
	GraphID string           `json:"graph_id"`
	At      time.Time        `json:"at"`
	Summary executor.Summary `json:"summary"`
}

// Journal is a badger-backed audit log.
type Journal struct {
	db *badger.DB
}

// Open opens (or creates) the journal at path.
func Open(path string) (*Journal, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// Append stores a record. The key embeds the timestamp so iteration order is
// chronological.
func (j *Journal) Append(rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal journal record: %w", err)
	}
	key := fmt.Sprintf("%s%s/%s", recordPrefix, rec.At.Format(time.RFC3339Nano), rec.ID)

	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Recent returns up to limit records, newest first.
func (j *Journal) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []Record
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek key past the prefix range.
		seek := append([]byte(recordPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix([]byte(recordPrefix)) && len(records) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec Record
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("failed to decode journal record: %w", err)
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the underlying store.
func (j *Journal) Close() error {
	return j.db.Close()
}
