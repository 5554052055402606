package database

import (
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"fitmatch/internal/logging"
)

type Config struct {
	FileName string `envconfig:"FITMATCH_DB_FILE" default:"fitmatch.db"`
}

type DB struct {
	DB *bolt.DB
}

func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("creating db connection")

	db, err := bolt.Open(config.FileName, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("creating connection Db: %w", err)
	}

	return &DB{DB: db}, nil
}

func (db *DB) Close(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Infof("closing DB connection")

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("error close Db connection: %w", err)
	}

	return nil
}
