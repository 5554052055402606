// Package database persists pending reports in bbolt.
package database

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"fitmatch/internal/database"
	"fitmatch/internal/report/model"
)

const bucket = "report:"

type FilterFn func(report model.Report) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func (db *DB) Store(_ context.Context, report model.Report) error {
	bytes, err := json.Marshal(report)
	if err != nil {
		return err
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := b.Put([]byte(report.ID.String()), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) Delete(_ context.Context, report model.Report) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		return b.Delete([]byte(report.ID.String()))
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) FindAll(_ context.Context, filter FilterFn) ([]model.Report, error) {
	var reports []model.Report
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var report model.Report
			if err := json.Unmarshal(v, &report); err != nil {
				return fmt.Errorf("json unmarshal error, %q", err)
			}
			if filter == nil || filter(report) {
				reports = append(reports, report)
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %v", err)
	}

	return reports, nil
}
