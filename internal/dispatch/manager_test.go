package dispatch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fitmatch/internal/database"
	"fitmatch/internal/matcher"
	"fitmatch/internal/report"
	resultDb "fitmatch/internal/result/database"
	"fitmatch/internal/result/model"
	"fitmatch/internal/selector"
	"fitmatch/internal/signal"
)

func testMatcher(t *testing.T) *matcher.Matcher {
	t.Helper()
	pool := signal.New([]float64{0, 1, 2, 3})
	if err := pool.Append(1, []float64{0, 1, 2, 3}); err != nil {
		t.Fatalf("building pool table: %v", err)
	}
	selection := &selector.Result{Choices: []selector.Choice{
		{TrainingID: 1, CandidateID: 1, SSE: 0, MaxResidual: 0.5},
	}}
	m, err := matcher.New(selection, pool)
	if err != nil {
		t.Fatalf("building matcher: %v", err)
	}
	return m
}

func TestManagerClassify(t *testing.T) {
	tests := []struct {
		name        string
		shutdownCh  chan error
		obs         matcher.Observation
		expected    bool
		expectedErr error
	}{
		{
			name:       "positive_classify",
			shutdownCh: make(chan error, 1),
			obs:        matcher.Observation{X: 1, Y: 1.1},
			expected:   true,
		},
		{
			name:       "negative_classify",
			shutdownCh: make(chan error, 1),
			obs:        matcher.Observation{X: 1, Y: 5},
			expected:   false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			db := &database.DB{}
			notifier, err := report.New(db, test.shutdownCh)
			if err != nil {
				t.Fatalf("creating report manager: %v", err)
			}

			m, err := New(db, testMatcher(t), notifier, test.shutdownCh)
			if err != nil {
				t.Fatalf("creating dispatch manager: %v", err)
			}

			result, err := m.Classify(test.obs)
			if err != test.expectedErr {
				t.Errorf("compute Classify, got: %v, expected: %v", err, test.expectedErr)
			}
			if result.Matched != test.expected {
				t.Errorf("compute Classify, got: %v, expected: %v", result.Matched, test.expected)
			}
		})
	}
}

func testManager(t *testing.T, db *database.DB, shutdownCh chan error) *manager {
	t.Helper()
	notifier, err := report.New(db, shutdownCh)
	if err != nil {
		t.Fatalf("creating report manager: %v", err)
	}
	m, err := New(db, testMatcher(t), notifier, shutdownCh, WithDBFlushSize(100))
	if err != nil {
		t.Fatalf("creating dispatch manager: %v", err)
	}
	return m
}

func TestManagerProcessPersistsNewFirst(t *testing.T) {
	m := testManager(t, &database.DB{}, make(chan error, 1))

	match := model.NewMatch("test-run", 1, 1.1, time.Now())
	if err := m.process(context.Background(), match); err != nil {
		t.Fatalf("calling the process method, unexpected error: %v", err)
	}

	if len(m.dbTxExecutor.buf) != 2 {
		t.Fatalf(
			"calling the process method, the length of buffer got: %v, expected: %v",
			len(m.dbTxExecutor.buf), 2,
		)
	}
	if !m.dbTxExecutor.buf[0].IsNew() {
		t.Errorf("calling the process method, the first write must carry the new status, got: %v", m.dbTxExecutor.buf[0].Status)
	}
	if !m.dbTxExecutor.buf[1].IsProcessed() {
		t.Errorf("calling the process method, the second write must carry the processed status, got: %v", m.dbTxExecutor.buf[1].Status)
	}
	if !m.dbTxExecutor.buf[1].Matched {
		t.Errorf("calling the process method, the match outcome got: %v, expected: %v", m.dbTxExecutor.buf[1].Matched, true)
	}
}

func TestManagerBulkLoadRequeuesNew(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{FileName: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("creating db: %v", err)
	}
	defer db.Close(ctx)

	newMatch := model.NewMatch("test-run", 1, 1, time.Now())
	processedMatch := model.NewMatch("test-run", 2, 2, time.Now())
	processedMatch.Status = model.StatusProcessed
	if err := resultDb.New(db).AppendMany(ctx, []model.Match{newMatch, processedMatch}); err != nil {
		t.Fatalf("storing results: %v", err)
	}

	m := testManager(t, db, make(chan error, 1))
	if err := m.bulkLoad(ctx); err != nil {
		t.Fatalf("calling the bulkLoad method, unexpected error: %v", err)
	}

	select {
	case requeued := <-m.collectCh:
		if requeued.ID != newMatch.ID {
			t.Errorf("calling the bulkLoad method, requeued id got: %v, expected: %v", requeued.ID, newMatch.ID)
		}
	default:
		t.Fatalf("calling the bulkLoad method, the unprocessed observation was not requeued")
	}

	if len(m.collectCh) != 0 {
		t.Errorf(
			"calling the bulkLoad method, the requeued length got: %v, expected: %v",
			len(m.collectCh)+1, 1,
		)
	}
}

func TestManagerCollectShutdownDoesNotBlock(t *testing.T) {
	m := testManager(t, &database.DB{}, make(chan error, 1))

	// the buffer is full and the collector is gone
	m.collectCh <- model.NewMatch("test-run", 1, 1, time.Now())
	close(m.done)

	err := m.Collect(
		model.NewMatch("test-run", 2, 2, time.Now()),
		model.NewMatch("test-run", 3, 3, time.Now()),
	)
	if err == nil {
		t.Errorf("calling the Collect method during shutdown, an error must be returned")
	}
}
