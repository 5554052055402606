// Package selector picks, for each training signal, the candidate signal
// with the minimal sum of squared errors over the shared sample axis.
package selector

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fitmatch/internal/signal"
	"fitmatch/pkg/math/vector"
)

var (
	// ErrAxisMismatch is returned when candidates and trainings are not
	// sampled on an identical input axis.
	ErrAxisMismatch = errors.New("candidate and training axes do not match")
	// ErrEmptyPool is returned when the candidate pool has no signals.
	ErrEmptyPool = errors.New("candidate pool is empty")
	// ErrInsufficientTrainingData is returned when fewer than
	// MinTrainingSignals training signals are supplied.
	ErrInsufficientTrainingData = errors.New("insufficient training data")
)

// MinTrainingSignals is the number of target signals a selection run
// requires.
const MinTrainingSignals = 4

// Choice records the winning candidate for one training signal.
type Choice struct {
	TrainingID  int     `json:"trainingId"`
	CandidateID int     `json:"candidateId"`
	SSE         float64 `json:"sse"`
	MaxResidual float64 `json:"maxResidual"`
}

// Result is the outcome of one selection run, ordered by training
// signal. It is write-once: the matcher consumes it read-only.
type Result struct {
	Choices []Choice `json:"choices"`
}

// ChoiceFor returns the choice made for the given training signal.
func (r *Result) ChoiceFor(trainingID int) (Choice, bool) {
	for i := range r.Choices {
		if r.Choices[i].TrainingID == trainingID {
			return r.Choices[i], true
		}
	}
	return Choice{}, false
}

// Select independently picks the best-fitting candidate for every
// training signal. A candidate wins on strictly smaller sum of squared
// errors; on an exact tie the lower candidate id wins. The same
// candidate may win for more than one training signal.
//
// All input validation happens before any computation; no partial
// result is ever returned.
func Select(pool, trainings *signal.Table) (*Result, error) {
	if pool == nil || len(pool.Signals) == 0 {
		return nil, ErrEmptyPool
	}
	if trainings == nil || len(trainings.Signals) < MinTrainingSignals {
		n := 0
		if trainings != nil {
			n = len(trainings.Signals)
		}
		return nil, fmt.Errorf("%w: got %d training signals, want at least %d",
			ErrInsufficientTrainingData, n, MinTrainingSignals)
	}
	if err := pool.Validate(); err != nil {
		return nil, fmt.Errorf("invalid candidate pool: %w", err)
	}
	if err := trainings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training set: %w", err)
	}
	if !pool.AxisEqual(trainings) {
		return nil, ErrAxisMismatch
	}

	choices := make([]Choice, len(trainings.Signals))
	var grp errgroup.Group
	for i := range trainings.Signals {
		i := i
		grp.Go(func() error {
			choice, err := selectOne(trainings.Signals[i], pool)
			if err != nil {
				return err
			}
			choices[i] = choice
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	return &Result{Choices: choices}, nil
}

func selectOne(training signal.Signal, pool *signal.Table) (Choice, error) {
	best := Choice{TrainingID: training.ID, CandidateID: -1}
	for _, candidate := range pool.Signals {
		sse, err := vector.SquaredError(training.Values, candidate.Values)
		if err != nil {
			return Choice{}, fmt.Errorf("training %d against candidate %d: %w",
				training.ID, candidate.ID, ErrAxisMismatch)
		}
		if best.CandidateID < 0 || sse < best.SSE ||
			(sse == best.SSE && candidate.ID < best.CandidateID) {
			best.CandidateID = candidate.ID
			best.SSE = sse
		}
	}

	winner, _ := pool.Signal(best.CandidateID)
	residual, err := vector.MaxAbsDeviation(training.Values, winner.Values)
	if err != nil {
		return Choice{}, fmt.Errorf("training %d residual against candidate %d: %w",
			training.ID, best.CandidateID, ErrAxisMismatch)
	}
	best.MaxResidual = residual

	return best, nil
}
