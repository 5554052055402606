// Package database persists selection runs in bbolt.
package database

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"fitmatch/internal/database"
	"fitmatch/internal/selection/model"
)

const bucket = "selection:"

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func (db *DB) Store(_ context.Context, selection model.Selection) error {
	bytes, err := json.Marshal(selection)
	if err != nil {
		return err
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := b.Put([]byte(selection.RunID), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) FindByRun(runID string) (model.Selection, error) {
	var selection model.Selection
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("no selection stored")
		}
		v := b.Get([]byte(runID))
		if v == nil {
			return fmt.Errorf("no selection stored for run %s", runID)
		}
		return json.Unmarshal(v, &selection)
	}); err != nil {
		return model.Selection{}, fmt.Errorf("view transaction error: %v", err)
	}

	return selection, nil
}

func (db *DB) Keys() ([]string, error) {
	var keys []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})

	return keys, err
}
