// Package rworker runs rate-limited background jobs.
package rworker

import "sync"

// Pool limits the number of concurrently running jobs. Job errors are
// pushed to errCh without blocking; when the channel is full the error
// is dropped.
type Pool struct {
	wg    sync.WaitGroup
	rate  chan struct{}
	errCh chan<- error
}

func NewPool(maxConcurrent int, errCh chan<- error) *Pool {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Pool{rate: make(chan struct{}, maxConcurrent), errCh: errCh}
}

func (p *Pool) Go(fn func() error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.rate <- struct{}{}
		defer func() { <-p.rate }()
		if err := fn(); err != nil {
			select {
			case p.errCh <- err:
			default:
			}
		}
	}()
}

func (p *Pool) Wait() {
	p.wg.Wait()
}
