// Package dispatch runs the background classification pipeline: it
// queues incoming observations, matches them against the selected ideal
// signals and keeps the persisted results bounded.
package dispatch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"fitmatch/internal/database"
	"fitmatch/internal/logging"
	"fitmatch/internal/matcher"
	"fitmatch/internal/report"
	resultDb "fitmatch/internal/result/database"
	"fitmatch/internal/result/model"
	"fitmatch/pkg/iqueue"
)

// Contract for returning the Manager instance
type ProvideFn func(*matcher.Matcher, report.Manager, chan<- error) (Manager, error)

// Manager defines the behavior of the background classification service.
type Manager interface {
	CollectClassifier
	Run(context.Context) error
	Stop()
}

// Collector accepts observations from outside and queues them for
// processing.
type Collector interface {
	Collect(in ...model.Match) error
}

// Classifier matches a single observation against the selected ideal
// signals.
type Classifier interface {
	Classify(obs matcher.Observation) (matcher.Result, error)
}

type CollectClassifier interface {
	Collector
	Classifier
}

type Options struct {
	maxItemsStored int
	maxStorageTime time.Duration
	dbFlushTime    time.Duration
	dbFlushSize    int
	rebuildDBTime  time.Duration
}

type Option func(*manager)

func WithDBFlushTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.dbFlushTime = t
	}
}

func WithDBFlushSize(n int) Option {
	return func(o *manager) {
		o.opts.dbFlushSize = n
	}
}

func WithRebuildDBTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.rebuildDBTime = t
	}
}

func WithMaxItemsStored(n int) Option {
	return func(o *manager) {
		o.opts.maxItemsStored = n
	}
}

func WithMaxStorageTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.maxStorageTime = t
	}
}

// New returns the manager
func New(
	db *database.DB,
	m *matcher.Matcher,
	notifier report.Manager,
	shutdownCh chan<- error,
	opts ...Option,
) (*manager, error) {
	if notifier == nil {
		return nil, fmt.Errorf("notifier instance is not created")
	}

	if m == nil {
		return nil, fmt.Errorf("matcher instance is not created")
	}

	d := &manager{
		resultDb:   resultDb.New(db),
		matcher:    m,
		collectCh:  make(chan model.Match, 1),
		done:       make(chan struct{}),
		queue:      iqueue.New[model.Match](),
		shutDownCh: shutdownCh,
		notifier:   notifier,
	}

	for _, f := range opts {
		f(d)
	}

	d.dbScheduler = newDBScheduler(d.resultDb, dbSchedulerConfig{
		maxItemsStored: d.opts.maxItemsStored,
		maxStorageTime: d.opts.maxStorageTime,
		rebuildDBTime:  d.opts.rebuildDBTime,
	})

	d.dbTxExecutor = newDBTxExecutor(dbTxExecutorOptions{
		dbFlushSize: d.opts.dbFlushSize,
		dbFlushTime: d.opts.dbFlushTime,
	}, shutdownCh)

	return d, nil
}

type manager struct {
	mtx sync.RWMutex

	opts Options
	// main result storage
	resultDb *resultDb.DB
	// the notification manager for unmatched observations
	notifier report.Manager
	// the transaction manager in the store
	dbTxExecutor *dbTxExecutor
	// manages retention of stored results
	dbScheduler *dbScheduler
	// matches observations against the chosen ideal signals
	matcher *matcher.Matcher

	// queue for new observations to be processed
	queue *iqueue.Queue[model.Match]
	// new observation channel for processing
	collectCh chan model.Match
	// closed once the collector stops receiving, unblocks senders
	done chan struct{}
	// channel to shutdown the application
	shutDownCh chan<- error

	closed bool

	// workers still draining the queue
	workers sync.WaitGroup

	cancelNotifier func()
	cancel         func()
}

// Run starts the queue loop, the storage flusher, the retention
// scheduler and the notification manager.
func (d *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	c, cancel := context.WithCancel(context.Background())
	d.cancelNotifier = cancel

	go d.queue.Loop()
	go d.collector(ctx)
	go d.dbTxExecutor.flusher(ctx, d.resultDb.AppendMany)
	go d.dbScheduler.schedule(ctx)

	workersNum := runtime.NumCPU() * workerMul
	d.workers.Add(workersNum)
	for i := 0; i < workersNum; i++ {
		go d.receive(ctx)
	}
	go func() {
		d.workers.Wait()
		d.cancelNotifier()
		d.shutDownCh <- nil
	}()

	// re-queue observations that were not processed before the last
	// shutdown
	if err := d.bulkLoad(ctx); err != nil {
		return fmt.Errorf("can not start dispatch manager: %w", err)
	}

	if err := d.notifier.Run(c); err != nil {
		return fmt.Errorf("report.Run: %w", err)
	}

	return nil
}

// Stop the manager
func (d *manager) Stop() {
	d.cancel()
}

// Classify returns the match result for the transmitted observation
func (d *manager) Classify(obs matcher.Observation) (matcher.Result, error) {
	d.mtx.RLock()
	if d.closed {
		d.mtx.RUnlock()
		return matcher.Result{}, fmt.Errorf("error to classify, shutting down")
	}
	d.mtx.RUnlock()
	return d.matcher.MatchOne(obs)
}

// Collect adds observations to the processing queue
func (d *manager) Collect(data ...model.Match) error {
	d.mtx.RLock()
	if d.closed {
		d.mtx.RUnlock()
		return fmt.Errorf("error send to collect, shutting down")
	}
	d.mtx.RUnlock()
	for i := range data {
		select {
		case d.collectCh <- data[i]:
		case <-d.done:
			return fmt.Errorf("error send to collect, shutting down")
		}
	}
	return nil
}

// bulkLoad re-queues stored observations with the "new" status
func (d *manager) bulkLoad(ctx context.Context) error {
	data, err := d.resultDb.FindAll(ctx, func(match model.Match) bool {
		return match.IsNew()
	})
	if err != nil {
		return fmt.Errorf("error fetching unprocessed results: %w", err)
	}

	for i := range data {
		select {
		case d.collectCh <- data[i]:
		case <-d.done:
			return nil
		}
	}

	return nil
}

func (d *manager) process(ctx context.Context, match model.Match) error {
	logger := logging.FromContext(ctx)

	// persisted as new first so a queued observation survives a restart
	match.Status = model.StatusNew
	d.dbTxExecutor.write(ctx, match, d.resultDb.AppendMany)

	result, err := d.matcher.MatchOne(match.Observation())
	if err != nil {
		if delErr := d.resultDb.Delete(context.Background(), match); delErr != nil {
			return fmt.Errorf("unable classify: %w", delErr)
		}
		return fmt.Errorf("unable classify: %w", err)
	}

	match.Apply(result)
	d.dbTxExecutor.write(ctx, match, d.resultDb.AppendMany)

	if !result.Matched {
		logger.Infof("unmatched observation, run %s: (%f, %f)", match.RunID, match.X, match.Y)
		d.report(match)
	}

	return nil
}

func (d *manager) report(in ...model.Match) {
	d.mtx.RLock()
	if !d.closed {
		d.mtx.RUnlock()
		d.notifier.Notify(in...)
		return
	}
	d.mtx.RUnlock()
}

// receive processes queued observations until the queue is closed and
// drained.
func (d *manager) receive(ctx context.Context) {
	logger := logging.FromContext(ctx)
	defer d.workers.Done()
	for recv := range d.queue.Receive() {
		if err := d.process(ctx, recv); err != nil {
			logger.Errorf("unable processed data: %v", err)
		}
	}
}

const workerMul = 2

func (d *manager) collector(ctx context.Context) {
	for {
		select {
		case in := <-d.collectCh:
			d.queue.Send(in)
		case <-ctx.Done():
			d.mtx.Lock()
			d.closed = true
			d.mtx.Unlock()
			// unblock pending senders before the queue stops
			close(d.done)
			d.queue.Close()
			return
		}
	}
}
