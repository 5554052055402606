package matcher

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitmatch/internal/selector"
	"fitmatch/internal/signal"
)

// Pool and selection from the perfect-fit scenario: candidate 1 matches
// the training signal exactly (max residual 0), candidate 2 does not.
func perfectFitMatcher(t *testing.T, opts ...Option) *Matcher {
	t.Helper()
	pool := signal.New([]float64{0, 1, 2, 3})
	require.NoError(t, pool.Append(1, []float64{0, 1, 4, 9}))
	require.NoError(t, pool.Append(2, []float64{0, 2, 5, 10}))

	selection := &selector.Result{Choices: []selector.Choice{
		{TrainingID: 1, CandidateID: 1, SSE: 0, MaxResidual: 0},
	}}
	m, err := New(selection, pool, opts...)
	require.NoError(t, err)
	return m
}

func TestMatchOneZeroTolerance(t *testing.T) {
	m := perfectFitMatcher(t)

	// Zero deviation satisfies the zero tolerance.
	result, err := m.MatchOne(Observation{X: 1, Y: 1.0})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, 1, result.CandidateID)
	assert.Equal(t, 0.0, result.Deviation)

	// Any positive deviation exceeds it.
	result, err = m.MatchOne(Observation{X: 1, Y: 1.1})
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestMatchOneInclusiveBoundary(t *testing.T) {
	pool := signal.New([]float64{0, 1, 2, 3})
	require.NoError(t, pool.Append(1, []float64{0, 0, 0, 0}))

	selection := &selector.Result{Choices: []selector.Choice{
		{TrainingID: 1, CandidateID: 1, MaxResidual: 1},
	}}
	m, err := New(selection, pool)
	require.NoError(t, err)

	// Deviation exactly sqrt(2)*maxResidual is still a match.
	result, err := m.MatchOne(Observation{X: 2, Y: math.Sqrt2})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, math.Sqrt2, result.Deviation)

	result, err = m.MatchOne(Observation{X: 2, Y: math.Nextafter(math.Sqrt2, 2)})
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestMatchOneSmallestDeviationWins(t *testing.T) {
	pool := signal.New([]float64{0, 1, 2, 3})
	require.NoError(t, pool.Append(1, []float64{0, 0, 0, 0}))
	require.NoError(t, pool.Append(2, []float64{1, 1, 1, 1}))

	selection := &selector.Result{Choices: []selector.Choice{
		{TrainingID: 1, CandidateID: 1, MaxResidual: 2},
		{TrainingID: 2, CandidateID: 2, MaxResidual: 2},
	}}
	m, err := New(selection, pool)
	require.NoError(t, err)

	// Both candidates tolerate the point; candidate 2 is closer.
	result, err := m.MatchOne(Observation{X: 1, Y: 0.8})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, 2, result.CandidateID)
	require.InDelta(t, 0.2, result.Deviation, 1e-12)
}

func TestMatchOneDeviationTieBreaksToLowestCandidate(t *testing.T) {
	pool := signal.New([]float64{0, 1, 2, 3})
	require.NoError(t, pool.Append(1, []float64{0, 0, 0, 0}))
	require.NoError(t, pool.Append(2, []float64{1, 1, 1, 1}))

	selection := &selector.Result{Choices: []selector.Choice{
		{TrainingID: 1, CandidateID: 2, MaxResidual: 1},
		{TrainingID: 2, CandidateID: 1, MaxResidual: 1},
	}}
	m, err := New(selection, pool)
	require.NoError(t, err)

	// Equidistant from both candidates: deviation 0.5 each.
	result, err := m.MatchOne(Observation{X: 1, Y: 0.5})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, 1, result.CandidateID)
	assert.Equal(t, 0.5, result.Deviation)
}

func TestMatchOneInterpolatedInput(t *testing.T) {
	pool := signal.New([]float64{0, 1, 2, 3})
	require.NoError(t, pool.Append(1, []float64{0, 2, 4, 6}))

	selection := &selector.Result{Choices: []selector.Choice{
		{TrainingID: 1, CandidateID: 1, MaxResidual: 1},
	}}
	m, err := New(selection, pool)
	require.NoError(t, err)

	// Candidate evaluates to 3 at x=1.5; deviation 0.5 within sqrt(2).
	result, err := m.MatchOne(Observation{X: 1.5, Y: 3.5})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, 0.5, result.Deviation)
}

func TestMatchOneDomainPolicy(t *testing.T) {
	unmatched := perfectFitMatcher(t)
	result, err := unmatched.MatchOne(Observation{X: 10, Y: 0})
	require.NoError(t, err)
	assert.False(t, result.Matched)

	fatal := perfectFitMatcher(t, WithDomainPolicy(DomainPolicyFatal))
	_, err = fatal.MatchOne(Observation{X: 10, Y: 0})
	assert.ErrorIs(t, err, signal.ErrOutOfDomain)
}

func TestMatchBatchOrderAndIdempotence(t *testing.T) {
	pool := signal.New([]float64{0, 1, 2, 3})
	require.NoError(t, pool.Append(1, []float64{0, 1, 4, 9}))

	selection := &selector.Result{Choices: []selector.Choice{
		{TrainingID: 1, CandidateID: 1, MaxResidual: 0.5},
	}}
	m, err := New(selection, pool, WithMaxWorkers(4))
	require.NoError(t, err)

	observations := []Observation{
		{X: 0, Y: 0},      // exact, matched
		{X: 1, Y: 5},      // far off, unmatched
		{X: 2, Y: 4.2},    // within tolerance
		{X: 2.5, Y: 6.5},  // interpolated value 6.5, deviation 0
		{X: -1, Y: 0},     // out of domain, unmatched by policy
		{X: 3, Y: 9.7071}, // within sqrt(2)*0.5
	}

	results, err := m.Match(context.Background(), observations)
	require.NoError(t, err)
	require.Len(t, results, len(observations))

	assert.True(t, results[0].Matched)
	assert.Equal(t, 0.0, results[0].Deviation)
	assert.False(t, results[1].Matched)
	assert.True(t, results[2].Matched)
	assert.True(t, results[3].Matched)
	assert.False(t, results[4].Matched)
	assert.True(t, results[5].Matched)

	again, err := m.Match(context.Background(), observations)
	require.NoError(t, err)
	assert.Equal(t, results, again)
}

func TestMatchBatchFatalPolicyAborts(t *testing.T) {
	m := perfectFitMatcher(t, WithDomainPolicy(DomainPolicyFatal))

	results, err := m.Match(context.Background(), []Observation{
		{X: 1, Y: 1},
		{X: 99, Y: 0},
	})
	assert.Nil(t, results)
	assert.ErrorIs(t, err, signal.ErrOutOfDomain)
}

func TestMatchCancelledContext(t *testing.T) {
	m := perfectFitMatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Match(ctx, []Observation{{X: 1, Y: 1}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewValidation(t *testing.T) {
	pool := signal.New([]float64{0, 1})
	require.NoError(t, pool.Append(1, []float64{0, 1}))

	_, err := New(nil, pool)
	assert.Error(t, err)

	_, err = New(&selector.Result{}, pool)
	assert.Error(t, err)

	_, err = New(&selector.Result{Choices: []selector.Choice{{TrainingID: 1, CandidateID: 7}}}, pool)
	assert.Error(t, err)

	_, err = New(
		&selector.Result{Choices: []selector.Choice{{TrainingID: 1, CandidateID: 1}}},
		pool,
		WithDomainPolicy(DomainPolicy("SOMETIMES")),
	)
	assert.Error(t, err)
}
