package dispatch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fitmatch/internal/logging"
	resultDb "fitmatch/internal/result/database"
	"fitmatch/internal/result/model"
)

type dbSchedulerConfig struct {
	maxItemsStored int
	maxStorageTime time.Duration
	rebuildDBTime  time.Duration
}

func newDBScheduler(db *resultDb.DB, config dbSchedulerConfig) *dbScheduler {
	return &dbScheduler{resultDb: db, opts: config}
}

// dbScheduler keeps the stored results bounded: it can hold the result
// count per run under a limit and drop results past their storage time.
type dbScheduler struct {
	opts     dbSchedulerConfig
	resultDb *resultDb.DB
}

// abstraction over the bulk delete of stored results
type deleteMatchesFn func(context.Context, []model.Match) error

// abstraction over fetching stored results for one run
type fetchMatchesByRunFn func(string, resultDb.FilterFn) ([]model.Match, error)

type fetchKeysFn func() ([]string, error)

type countByRunFn func(string) (int, error)

// processOutdatedMatches fetches the processed results of a run that are
// older than the configured storage time and deletes them in bulk.
func (s *dbScheduler) processOutdatedMatches(
	runID string,
	fetchFn fetchMatchesByRunFn,
	deleteFn deleteMatchesFn,
) error {
	matches, err := fetchFn(runID, func(match model.Match) bool {
		return match.Status == model.StatusProcessed && time.Since(match.CreatedAt) > s.opts.maxStorageTime
	})
	if err != nil {
		return fmt.Errorf("unable find results by run %s: %v", runID, err)
	}

	if err := deleteFn(context.Background(), matches); err != nil {
		return fmt.Errorf("unable delete outdated results of run %s: %v", runID, err)
	}
	return nil
}

// processOverSizeMatches fetches the processed results of a run, sorts
// them by creation time and deletes the oldest ones beyond the limit.
func (s *dbScheduler) processOverSizeMatches(
	runID string,
	fetchFn fetchMatchesByRunFn,
	deleteFn deleteMatchesFn,
) error {
	matches, err := fetchFn(runID, func(match model.Match) bool {
		return match.Status == model.StatusProcessed
	})
	if err != nil {
		return fmt.Errorf("unable find results by run %s: %v", runID, err)
	}

	if len(matches) <= s.opts.maxItemsStored {
		return nil
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.UnixNano() < matches[j].CreatedAt.UnixNano()
	})

	if err := deleteFn(context.Background(), matches[:len(matches)-s.opts.maxItemsStored]); err != nil {
		return fmt.Errorf("unable delete oversize results of run %s: %v", runID, err)
	}
	return nil
}

// rebuildOutdated checks every run for results past their storage time.
func (s *dbScheduler) rebuildOutdated(
	keysFn fetchKeysFn,
	fetchFn fetchMatchesByRunFn,
	deleteFn deleteMatchesFn,
) error {
	keys, err := keysFn()
	if err != nil {
		return fmt.Errorf("unable to fetch run keys: %v", err)
	}
	for i := range keys {
		if err := s.processOutdatedMatches(keys[i], fetchFn, deleteFn); err != nil {
			return fmt.Errorf("unable process results: %v", err)
		}
	}
	return nil
}

// rebuildSize checks every run for result counts over the limit.
func (s *dbScheduler) rebuildSize(keysFn fetchKeysFn, countFn countByRunFn) error {
	keys, err := keysFn()
	if err != nil {
		return fmt.Errorf("unable fetch keys: %v", err)
	}
	for i := range keys {
		length, err := countFn(keys[i])
		if err != nil {
			return fmt.Errorf("unable count by run %s: %v", keys[i], err)
		}
		if length > s.opts.maxItemsStored {
			if err := s.processOverSizeMatches(keys[i], s.resultDb.FindByRun, s.resultDb.DeleteMany); err != nil {
				return fmt.Errorf("unable process results: %v", err)
			}
		}
	}

	return nil
}

// schedule runs the retention passes on a fixed ticker.
func (s *dbScheduler) schedule(ctx context.Context) {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(s.opts.rebuildDBTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.opts.maxItemsStored > 0 {
				if err := s.rebuildSize(s.resultDb.Keys, s.resultDb.CountByRun); err != nil {
					logger.Errorf("unable db rebuild size: %v", err)
				}
			}
			if s.opts.maxStorageTime > 0 {
				if err := s.rebuildOutdated(s.resultDb.Keys, s.resultDb.FindByRun, s.resultDb.DeleteMany); err != nil {
					logger.Errorf("unable db rebuild outdated: %v", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
