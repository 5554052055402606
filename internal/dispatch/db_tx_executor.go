package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fitmatch/internal/logging"
	"fitmatch/internal/result/model"
)

// abstraction over the bulk-insert of classified observations
type appendManyFn func(context.Context, []model.Match) error

func newDBTxExecutor(opts dbTxExecutorOptions, shutdownCh chan<- error) *dbTxExecutor {
	return &dbTxExecutor{opts: opts, shutdownCh: shutdownCh}
}

type dbTxExecutorOptions struct {
	dbFlushSize int
	dbFlushTime time.Duration
}

// dbTxExecutor accumulates classified observations and inserts them in
// bulk into persistent storage.
type dbTxExecutor struct {
	mtx sync.RWMutex

	opts dbTxExecutorOptions
	// buffer of results awaiting a bulk insert
	buf        []model.Match
	shutdownCh chan<- error
}

// shutdown urgently inserts all buffered data into persistent storage.
func (tx *dbTxExecutor) shutdown(appendFn appendManyFn) error {
	tx.mtx.Lock()
	defer tx.mtx.Unlock()
	if err := appendFn(context.Background(), tx.buf); err != nil {
		return fmt.Errorf("txExecutor: append many operation failed: %v", err)
	}
	tx.buf = tx.buf[:0]
	return nil
}

// write is the main method for adding data. It adds the result to the
// buffer and triggers a bulk insert when the buffer is full.
func (tx *dbTxExecutor) write(ctx context.Context, data model.Match, appendFn appendManyFn) {
	tx.mtx.Lock()
	if tx.buf == nil {
		tx.buf = []model.Match{}
	}

	tx.buf = append(tx.buf, data)
	bufLen := len(tx.buf)
	tx.mtx.Unlock()

	if bufLen >= tx.opts.dbFlushSize {
		go tx.bulkAppend(ctx, appendFn)
	}
}

// bulkAppend copies the buffer out under the lock and inserts it in bulk.
func (tx *dbTxExecutor) bulkAppend(ctx context.Context, appendFn appendManyFn) {
	logger := logging.FromContext(ctx)

	tx.mtx.Lock()
	tmpBuf := make([]model.Match, len(tx.buf))
	copy(tmpBuf, tx.buf)
	tx.buf = tx.buf[:0]
	tx.mtx.Unlock()

	if err := appendFn(context.Background(), tmpBuf); err != nil {
		logger.Errorf("txExecutor: append many operation failed: %v", err)
	}
}

// flusher periodically inserts buffered data into the database and
// drains the buffer on shutdown.
func (tx *dbTxExecutor) flusher(ctx context.Context, appendFn appendManyFn) {
	defer func() {
		tx.shutdownCh <- tx.shutdown(appendFn)
	}()
	ticker := time.NewTicker(tx.opts.dbFlushTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tx.bulkAppend(ctx, appendFn)
		case <-ctx.Done():
			return
		}
	}
}
