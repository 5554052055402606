// Package report delivers batches of unmatched observations to the
// configured webhook targets.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"fitmatch/internal/database"
	"fitmatch/internal/httputil"
	"fitmatch/internal/logging"
	reportDb "fitmatch/internal/report/database"
	"fitmatch/internal/report/model"
	resultModel "fitmatch/internal/result/model"
	"fitmatch/pkg/rworker"
)

type ProvideFn = func(chan<- error) (Manager, error)

const UserAgent = "FITMATCH/0.1"

type Options struct {
	maxConcurrentRequest int
	requestTimeout       time.Duration
	reportInterval       time.Duration
}

type Option func(*manager)

func WithMaxConcurrentRequest(n int) Option {
	return func(o *manager) {
		o.opts.maxConcurrentRequest = n
	}
}

func WithInterval(t time.Duration) Option {
	return func(o *manager) {
		o.opts.reportInterval = t
	}
}

func WithRequestTimeout(t time.Duration) Option {
	return func(o *manager) {
		o.opts.requestTimeout = t
	}
}

func WithTargets(m Targets) Option {
	return func(o *manager) {
		o.targets = m
	}
}

type point struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	CreatedAt time.Time `json:"createdAt"`
}

type request struct {
	RunID  string  `json:"runId"`
	Points []point `json:"points"`
}

type Notifier interface {
	Notify(matches ...resultModel.Match)
}

type Manager interface {
	Notifier
	Run(context.Context) error
	Stop()
}

var defaultOptions = Options{
	maxConcurrentRequest: 64,
	requestTimeout:       30 * time.Second,
	reportInterval:       5 * time.Second,
}

func New(db *database.DB, shutdownCh chan<- error, opts ...Option) (*manager, error) {
	m := &manager{
		opts:       defaultOptions,
		reportDb:   reportDb.New(db),
		shutdownCh: shutdownCh,
		targets:    Targets{},
		clients:    map[string]*http.Client{},
		pending:    map[string][]resultModel.Match{},
	}
	for _, f := range opts {
		f(m)
	}
	for _, target := range m.targets {
		if _, ok := m.clients[target.Name]; !ok {
			client, err := httpClientFor(target)
			if err != nil {
				return nil, fmt.Errorf("unable create client for target %s: %v", target.Name, err)
			}
			m.clients[target.Name] = client
		}
	}
	return m, nil
}

type manager struct {
	mtx        sync.RWMutex
	opts       Options
	reportDb   *reportDb.DB
	shutdownCh chan<- error
	targets    Targets
	clients    map[string]*http.Client
	// unmatched observations grouped by run, awaiting delivery
	pending map[string][]resultModel.Match
	cancel  func()
}

func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go m.notifier(ctx)
	if err := m.initialize(ctx); err != nil {
		return fmt.Errorf("can not start report manager: %v", err)
	}
	return nil
}

func (m *manager) Stop() {
	m.cancel()
}

func (m *manager) Notify(matches ...resultModel.Match) {
	m.mtx.Lock()
	for i := range matches {
		m.pending[matches[i].RunID] = append(m.pending[matches[i].RunID], matches[i])
	}
	m.mtx.Unlock()
}

// initialize re-queues reports that were persisted on a previous
// shutdown.
func (m *manager) initialize(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	reports, err := m.reportDb.FindAll(ctx, nil)
	if err != nil {
		logger.Errorf("error with fetching pending reports from db, %v", err)
	}
	for i := range reports {
		m.Notify(reports[i].Matches...)
		if err := m.reportDb.Delete(context.Background(), reports[i]); err != nil {
			return fmt.Errorf("unable delete report on initialize: %v", err)
		}
	}
	return nil
}

// shutdown persists undelivered batches.
func (m *manager) shutdown() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for runID, matches := range m.pending {
		if len(matches) == 0 {
			continue
		}
		report := model.NewReport(runID, matches)
		if err := m.reportDb.Store(context.Background(), report); err != nil {
			return fmt.Errorf("report shutdown: unable store report: %v", err)
		}
	}
	return nil
}

func (m *manager) notifier(ctx context.Context) {
	logger := logging.FromContext(ctx)
	errCh := make(chan error, 1)
	go func() {
		for err := range errCh {
			logger.Errorf("report error: %v", err)
		}
	}()
	defer func() {
		m.shutdownCh <- m.shutdown()
		close(errCh)
	}()
	pool := rworker.NewPool(m.opts.maxConcurrentRequest, errCh)
	ticker := time.NewTicker(m.opts.reportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.mtx.Lock()
			batches := m.pending
			m.pending = map[string][]resultModel.Match{}
			m.mtx.Unlock()

			for runID, matches := range batches {
				if len(matches) == 0 {
					continue
				}
				for _, target := range m.targets {
					pool.Go(func() error {
						if err := m.do(ctx, target, request{RunID: runID, Points: points(matches)}); err != nil {
							// undelivered batches are retried on the next tick
							m.Notify(matches...)
							return fmt.Errorf("report do request error: %v", err)
						}
						return nil
					})
				}
			}
			pool.Wait()
		case <-ctx.Done():
			return
		}
	}
}

func points(matches []resultModel.Match) []point {
	out := make([]point, len(matches))
	for i := range matches {
		out[i] = point{X: matches[i].X, Y: matches[i].Y, CreatedAt: matches[i].CreatedAt}
	}
	return out
}

func (m *manager) do(ctx context.Context, target Target, req request) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.requestTimeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("unable encode json data: %w", err)
	}
	link, err := url.Parse(target.URL)
	if err != nil {
		return fmt.Errorf("url parsing error: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, link.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request error: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Add("User-Agent", UserAgent)

	client, ok := m.clients[target.Name]
	if !ok {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("target %s request error: %w", target.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("target %s responded with status %d", target.Name, resp.StatusCode)
	}
	return nil
}

func httpClientFor(target Target) (*http.Client, error) {
	if err := target.HTTPConfig.Validate(); err != nil {
		return nil, err
	}
	return httputil.NewClientFromConfig(target.HTTPConfig)
}
