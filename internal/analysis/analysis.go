// Package analysis orchestrates a full run: it loads the input tables,
// selects the best ideal signals, classifies the test observations,
// persists the outcome and renders the report.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fitmatch/internal/database"
	"fitmatch/internal/dataset"
	"fitmatch/internal/logging"
	"fitmatch/internal/matcher"
	resultDb "fitmatch/internal/result/database"
	resultModel "fitmatch/internal/result/model"
	selectionDb "fitmatch/internal/selection/database"
	selectionModel "fitmatch/internal/selection/model"
	"fitmatch/internal/selector"
	"fitmatch/internal/signal"
	"fitmatch/internal/viz"
)

func New(db *database.DB, datasetCfg *dataset.Config, matcherCfg *matcher.Config, vizCfg *viz.Config) *Runner {
	return &Runner{
		datasetCfg:  datasetCfg,
		matcherCfg:  matcherCfg,
		selectionDb: selectionDb.New(db),
		resultDb:    resultDb.New(db),
		renderer:    viz.NewRenderer(vizCfg),
	}
}

type Runner struct {
	datasetCfg  *dataset.Config
	matcherCfg  *matcher.Config
	selectionDb *selectionDb.DB
	resultDb    *resultDb.DB
	renderer    *viz.Renderer

	// loaded by Prepare, reused by Run for the report
	pool      *signal.Table
	trainings *signal.Table
	selection *selector.Result
}

// Prepare loads the training and ideal tables, runs the selection and
// persists it under a fresh run id. It returns the matcher built from
// the selection.
func (r *Runner) Prepare(ctx context.Context) (*matcher.Matcher, string, error) {
	logger := logging.FromContext(ctx)

	if err := r.datasetCfg.Resolve(); err != nil {
		return nil, "", fmt.Errorf("unable resolve dataset config: %w", err)
	}

	pool, err := dataset.LoadTable(ctx, r.datasetCfg.IdealFile)
	if err != nil {
		return nil, "", fmt.Errorf("unable load ideal table: %w", err)
	}
	trainings, err := dataset.LoadTable(ctx, r.datasetCfg.TrainingFile)
	if err != nil {
		return nil, "", fmt.Errorf("unable load training table: %w", err)
	}

	selection, err := selector.Select(pool, trainings)
	if err != nil {
		return nil, "", fmt.Errorf("selection failed: %w", err)
	}

	runID := uuid.New().String()
	if err := r.selectionDb.Store(ctx, selectionModel.NewSelection(runID, selection, time.Now())); err != nil {
		return nil, "", fmt.Errorf("unable store selection: %w", err)
	}

	for _, choice := range selection.Choices {
		logger.Infof(
			"run %s: training %d selected ideal %d, sse %f, max residual %f",
			runID, choice.TrainingID, choice.CandidateID, choice.SSE, choice.MaxResidual,
		)
	}

	m, err := matcher.New(
		selection,
		pool,
		matcher.WithDomainPolicy(r.matcherCfg.DomainPolicy),
		matcher.WithMaxWorkers(r.matcherCfg.MaxWorkers),
	)
	if err != nil {
		return nil, "", fmt.Errorf("unable create matcher: %w", err)
	}

	r.pool = pool
	r.trainings = trainings
	r.selection = selection

	return m, runID, nil
}

// Replay re-renders the report for an already stored run from the
// persisted selection and match results; the input tables are re-read
// from the dataset files.
func (r *Runner) Replay(ctx context.Context, runID string) error {
	logger := logging.FromContext(ctx)

	if err := r.datasetCfg.Resolve(); err != nil {
		return fmt.Errorf("unable resolve dataset config: %w", err)
	}
	pool, err := dataset.LoadTable(ctx, r.datasetCfg.IdealFile)
	if err != nil {
		return fmt.Errorf("unable load ideal table: %w", err)
	}
	trainings, err := dataset.LoadTable(ctx, r.datasetCfg.TrainingFile)
	if err != nil {
		return fmt.Errorf("unable load training table: %w", err)
	}

	stored, err := r.selectionDb.FindByRun(runID)
	if err != nil {
		keys, keysErr := r.selectionDb.Keys()
		if keysErr != nil {
			return fmt.Errorf("unable find selection for run %s: %w", runID, err)
		}
		return fmt.Errorf("unable find selection for run %s (stored runs: %v): %w", runID, keys, err)
	}

	matches, err := r.resultDb.FindByRun(runID, nil)
	if err != nil {
		return fmt.Errorf("unable load results for run %s: %w", runID, err)
	}

	page, err := viz.Compose(runID, trainings, pool, stored.Result(), matches)
	if err != nil {
		return fmt.Errorf("unable compose report: %w", err)
	}
	if err := r.renderer.Render(page); err != nil {
		return fmt.Errorf("unable render report: %w", err)
	}

	logger.Infof("replayed run %s: %d choices, %d stored results", runID, len(stored.Choices), len(matches))

	return nil
}

// Run executes the whole pipeline: selection, classification of the
// test observations, persistence and the HTML report.
func (r *Runner) Run(ctx context.Context) (string, error) {
	logger := logging.FromContext(ctx)

	m, runID, err := r.Prepare(ctx)
	if err != nil {
		return "", err
	}

	observations, err := dataset.LoadObservations(ctx, r.datasetCfg.TestFile)
	if err != nil {
		return "", fmt.Errorf("unable load test observations: %w", err)
	}

	results, err := m.Match(ctx, observations)
	if err != nil {
		return "", fmt.Errorf("matching failed: %w", err)
	}

	now := time.Now()
	matches := make([]resultModel.Match, len(observations))
	matchedNum := 0
	for i := range observations {
		match := resultModel.NewMatch(runID, observations[i].X, observations[i].Y, now)
		match.Apply(results[i])
		matches[i] = match
		if results[i].Matched {
			matchedNum++
		}
	}

	if err := r.resultDb.AppendMany(ctx, matches); err != nil {
		return "", fmt.Errorf("unable store results: %w", err)
	}

	page, err := viz.Compose(runID, r.trainings, r.pool, r.selection, matches)
	if err != nil {
		return "", fmt.Errorf("unable compose report: %w", err)
	}
	if err := r.renderer.Render(page); err != nil {
		return "", fmt.Errorf("unable render report: %w", err)
	}

	logger.Infof(
		"run %s: classified %d observations, %d matched, %d unmatched",
		runID, len(matches), matchedNum, len(matches)-matchedNum,
	)

	return runID, nil
}
