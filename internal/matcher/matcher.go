// Package matcher classifies test observations against the candidates
// chosen by a selection run, under the sqrt(2) deviation-tolerance rule.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"math"

	"fitmatch/internal/selector"
	"fitmatch/internal/signal"
	"fitmatch/pkg/rworker"
)

// ToleranceFactor scales a choice's max training residual into the
// acceptance tolerance for test observations.
const ToleranceFactor = math.Sqrt2

// DomainPolicy fixes how observations outside the sampled axis range
// are handled.
type DomainPolicy string

const (
	// DomainPolicyUnmatched records an out-of-domain observation as
	// Unmatched and continues with the batch.
	DomainPolicyUnmatched DomainPolicy = "UNMATCHED"
	// DomainPolicyFatal aborts the batch on the first out-of-domain
	// observation.
	DomainPolicyFatal DomainPolicy = "FATAL"
)

// Observation is a single test point. Its input need not coincide with
// the sampled axis.
type Observation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result is the classification of one observation: either unmatched, or
// matched to a chosen candidate with the recorded deviation.
type Result struct {
	Matched     bool    `json:"matched"`
	CandidateID int     `json:"candidateId,omitempty"`
	Deviation   float64 `json:"deviation,omitempty"`
}

type Options struct {
	domainPolicy DomainPolicy
	maxWorkers   int
}

type Option func(*Matcher)

func WithDomainPolicy(p DomainPolicy) Option {
	return func(m *Matcher) {
		m.opts.domainPolicy = p
	}
}

func WithMaxWorkers(n int) Option {
	return func(m *Matcher) {
		m.opts.maxWorkers = n
	}
}

var defaultOptions = Options{domainPolicy: DomainPolicyUnmatched, maxWorkers: 8}

// New builds a matcher over a finished selection run. The pool must
// contain every chosen candidate; the selection is consumed read-only.
func New(selection *selector.Result, pool *signal.Table, opts ...Option) (*Matcher, error) {
	if selection == nil || len(selection.Choices) == 0 {
		return nil, fmt.Errorf("selection result is empty")
	}
	if pool == nil {
		return nil, fmt.Errorf("candidate pool is not defined")
	}
	for _, choice := range selection.Choices {
		if _, ok := pool.Signal(choice.CandidateID); !ok {
			return nil, fmt.Errorf("chosen candidate %d is missing from the pool", choice.CandidateID)
		}
	}

	m := &Matcher{selection: selection, pool: pool, opts: defaultOptions}
	for _, f := range opts {
		f(m)
	}
	switch m.opts.domainPolicy {
	case DomainPolicyUnmatched, DomainPolicyFatal:
	default:
		return nil, fmt.Errorf("unknown domain policy: %s", m.opts.domainPolicy)
	}
	return m, nil
}

type Matcher struct {
	opts      Options
	selection *selector.Result
	pool      *signal.Table
}

// MatchOne classifies a single observation. An observation is assigned
// to the chosen candidate with the smallest deviation among those whose
// tolerance (ToleranceFactor times the stored max residual, inclusive)
// it satisfies; ties go to the lower candidate id. A nil error with
// Matched false means no candidate qualified.
func (m *Matcher) MatchOne(obs Observation) (Result, error) {
	best := Result{}
	for _, choice := range m.selection.Choices {
		value, err := m.pool.EvalAt(choice.CandidateID, obs.X)
		if err != nil {
			if errors.Is(err, signal.ErrOutOfDomain) && m.opts.domainPolicy == DomainPolicyUnmatched {
				return Result{}, nil
			}
			return Result{}, err
		}
		deviation := math.Abs(obs.Y - value)
		if deviation > ToleranceFactor*choice.MaxResidual {
			continue
		}
		if !best.Matched ||
			deviation < best.Deviation ||
			(deviation == best.Deviation && choice.CandidateID < best.CandidateID) {
			best = Result{Matched: true, CandidateID: choice.CandidateID, Deviation: deviation}
		}
	}
	return best, nil
}

// Match classifies a batch of observations, one result per observation,
// order-preserving. Observations are independent and are processed on a
// bounded worker pool; each worker writes only its own result slot.
// Cancelling the context stops submission of remaining observations.
func (m *Matcher) Match(ctx context.Context, observations []Observation) ([]Result, error) {
	results := make([]Result, len(observations))
	errCh := make(chan error, 1)
	pool := rworker.NewPool(m.opts.maxWorkers, errCh)
	for i := range observations {
		if err := ctx.Err(); err != nil {
			break
		}
		i := i
		pool.Go(func() error {
			result, err := m.MatchOne(observations[i])
			if err != nil {
				return fmt.Errorf("observation %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}
	pool.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
