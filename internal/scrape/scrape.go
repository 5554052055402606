// Package scrape pulls observation batches from remote targets and
// feeds them into the classification pipeline.
package scrape

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"fitmatch/internal/dispatch"
	"fitmatch/internal/logging"
	"fitmatch/internal/result/model"
	"fitmatch/pkg/rworker"
)

type response struct {
	RunID string `json:"runId"`
	Data  []struct {
		X         float64   `json:"x"`
		Y         float64   `json:"y"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"data"`
}

type Manager interface {
	Run(context.Context) error
	Stop()
}

type ProvideFn = func(dispatch.Manager, chan<- error) (Manager, error)

const UserAgent = "FITMATCH/0.1"

type Options struct {
	maxConcurrentRequest  int
	requestTimeout        time.Duration
	tlsHandshakeTimeout   time.Duration
	responseHeaderTimeout time.Duration
	scrapeInterval        time.Duration
}

type Option func(*manager)

func WithMaxConcurrentRequest(n int) Option {
	return func(o *manager) {
		o.opts.maxConcurrentRequest = n
	}
}

func WithInterval(t time.Duration) Option {
	return func(o *manager) {
		o.opts.scrapeInterval = t
	}
}

func WithRequestTimeout(t time.Duration) Option {
	return func(o *manager) {
		o.opts.requestTimeout = t
	}
}

func WithTargetUrls(m Targets) Option {
	return func(o *manager) {
		o.targets = m
	}
}

func New(dispatcher dispatch.Manager, shutdownCh chan<- error, opts ...Option) (*manager, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatch instance is not defined")
	}
	m := &manager{
		targets:    Targets{},
		shutdownCh: shutdownCh,
		dispatcher: dispatcher,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.client = &http.Client{
		Transport: &http.Transport{
			TLSHandshakeTimeout:   m.opts.tlsHandshakeTimeout,
			ResponseHeaderTimeout: m.opts.responseHeaderTimeout,
		},
	}
	return m, nil
}

type manager struct {
	opts             Options
	targets          Targets
	dispatcher       dispatch.Manager
	client           *http.Client
	shutdownCh       chan<- error
	cancelDispatcher func()
	cancel           func()
}

func (s *manager) Stop() {
	s.cancel()
}

func (s *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	c, cancel := context.WithCancel(context.Background())
	s.cancelDispatcher = cancel
	if err := s.dispatcher.Run(c); err != nil {
		return fmt.Errorf("dispatch.Run: %w", err)
	}
	go func() {
		defer func() {
			s.shutdownCh <- nil
			s.cancelDispatcher()
		}()
		ticker := time.NewTicker(s.opts.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.scrapping(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *manager) scrape(link string) (response, error) {
	var response response
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", link, nil)
	if err != nil {
		return response, fmt.Errorf("creating request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("User-Agent", UserAgent)
	req.Header.Add("Accept-Encoding", "gzip")
	resp, err := s.client.Do(req)
	if err != nil {
		return response, fmt.Errorf("sending request error: %w", err)
	}

	defer resp.Body.Close()

	var reader io.ReadCloser
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return response, fmt.Errorf("unable create gzip.NewReader: %w", err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	default:
		reader = resp.Body
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return response, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return response, fmt.Errorf("response was not 200 OK: %s", body)
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	if err := decoder.Decode(&response); err != nil {
		return response, fmt.Errorf("decoding response error: %w", err)
	}

	return response, nil
}

func (s *manager) scrapping(ctx context.Context) {
	logger := logging.FromContext(ctx)
	errCh := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for err := range errCh {
			logger.Errorf("scrape manager error: %v", err)
		}
	}()
	pool := rworker.NewPool(s.opts.maxConcurrentRequest, errCh)
	for _, link := range s.targets {
		target := link
		urlData, err := url.Parse(target.URL)
		if err != nil {
			logger.Errorf("url parsing error: %v", err)
			continue
		}
		pool.Go(func() error {
			resp, err := s.scrape(urlData.String())
			if err != nil {
				return fmt.Errorf("scrape error: %w", err)
			}
			runID := resp.RunID
			if runID == "" {
				runID = target.RunID
			}
			sort.Slice(resp.Data, func(i, j int) bool {
				return resp.Data[i].CreatedAt.Before(resp.Data[j].CreatedAt)
			})
			for _, dat := range resp.Data {
				if err := s.dispatcher.Collect(model.NewMatch(runID, dat.X, dat.Y, dat.CreatedAt)); err != nil {
					return fmt.Errorf("send to collect error: %w", err)
				}
			}
			return nil
		})
	}
	pool.Wait()
	close(errCh)
	<-done
}
