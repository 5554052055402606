// Package database persists classified observations in bbolt, one
// bucket per analysis run.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	bolt "go.etcd.io/bbolt"

	"fitmatch/internal/database"
	"fitmatch/internal/result/model"
)

const (
	runKeys = "run:keys:"
	prefix  = "result:"
)

type FilterFn func(match model.Match) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func (db *DB) extractKey(key string) string {
	prefixPos := strings.Index(key, prefix)

	return key[prefixPos+len(prefix):]
}

// Keys returns the run ids that have stored results.
func (db *DB) Keys() ([]string, error) {
	var bucketKeys []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(runKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			bucketKeys = append(bucketKeys, db.extractKey(string(k)))
		}
		return nil
	})

	return bucketKeys, err
}

func (db *DB) Store(_ context.Context, match model.Match) error {
	bytes, err := json.Marshal(match)
	if err != nil {
		return err
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(prefix + match.RunID))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := b.Put([]byte(match.ID.String()), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		b, err = tx.CreateBucketIfNotExists([]byte(runKeys))
		if err != nil {
			return fmt.Errorf("unable create run keys bucket: %w", err)
		}
		if err := b.Put([]byte(prefix+match.RunID), []byte{0x0}); err != nil {
			return fmt.Errorf("unable put to run keys bucket: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) AppendMany(_ context.Context, matches []model.Match) error {
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, match := range matches {
			b, err := tx.CreateBucketIfNotExists([]byte(prefix + match.RunID))
			if err != nil {
				return fmt.Errorf("create bucket: %w", err)
			}
			bytes, err := json.Marshal(match)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(match.ID.String()), bytes); err != nil {
				return fmt.Errorf("put to bucket error: %w", err)
			}
			keysBucket, err := tx.CreateBucketIfNotExists([]byte(runKeys))
			if err != nil {
				return fmt.Errorf("unable create run keys bucket: %w", err)
			}
			if err := keysBucket.Put([]byte(prefix+match.RunID), []byte{0x0}); err != nil {
				return fmt.Errorf("unable put to run keys bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) DeleteMany(_ context.Context, matches []model.Match) error {
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, match := range matches {
			b := tx.Bucket([]byte(prefix + match.RunID))
			if b == nil {
				continue
			}
			if err := b.Delete([]byte(match.ID.String())); err != nil {
				return fmt.Errorf("unable delete: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) Delete(_ context.Context, match model.Match) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + match.RunID))
		if b == nil {
			return nil
		}

		return b.Delete([]byte(match.ID.String()))
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

// FindAll returns stored results for every run, optionally filtered.
func (db *DB) FindAll(_ context.Context, filter FilterFn) ([]model.Match, error) {
	var matches []model.Match
	keys, err := db.Keys()
	if err != nil {
		return nil, fmt.Errorf("fetch run keys: %w", err)
	}

	for _, key := range keys {
		list, err := db.FindByRun(key, filter)
		if err != nil {
			return nil, err
		}
		matches = append(matches, list...)
	}

	return matches, nil
}

func (db *DB) CountByRun(runID string) (int, error) {
	var length int
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + runID))
		if b == nil {
			length = 0
			return nil
		}
		stats := b.Stats()
		length = stats.KeyN
		return nil
	}); err != nil {
		return 0, fmt.Errorf("view transaction error: %v", err)
	}

	return length, nil
}

func (db *DB) FindByRun(runID string, filter FilterFn) ([]model.Match, error) {
	var list []model.Match
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + runID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var match model.Match
			if err := json.Unmarshal(v, &match); err != nil {
				return fmt.Errorf("json unmarshal error, %q", err)
			}
			if filter == nil || filter(match) {
				list = append(list, match)
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %v", err)
	}

	return list, nil
}
