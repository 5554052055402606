package analysis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitmatch/internal/database"
	"fitmatch/internal/dataset"
	"fitmatch/internal/matcher"
	resultDb "fitmatch/internal/result/database"
	resultModel "fitmatch/internal/result/model"
	selectionModel "fitmatch/internal/selection/model"
	"fitmatch/internal/selector"
	"fitmatch/internal/viz"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testRunner(t *testing.T) (*Runner, *database.DB, string) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := database.NewFromEnv(ctx, &database.Config{FileName: filepath.Join(dir, "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close(ctx)
	})

	datasetCfg := &dataset.Config{
		TrainingFile: writeFile(t, dir, "train.csv", "x,y1\n0,0.1\n1,1.1\n2,2.1\n"),
		IdealFile:    writeFile(t, dir, "ideal.csv", "x,y1\n0,0\n1,1\n2,2\n"),
		TestFile:     writeFile(t, dir, "test.csv", "x,y\n1,1.05\n"),
	}
	out := filepath.Join(dir, "analysis.html")
	runner := New(db, datasetCfg, &matcher.Config{DomainPolicy: matcher.DomainPolicyUnmatched, MaxWorkers: 2}, &viz.Config{OutputFile: out})

	return runner, db, out
}

func TestRunnerReplay(t *testing.T) {
	ctx := context.Background()
	runner, db, out := testRunner(t)

	result := &selector.Result{Choices: []selector.Choice{
		{TrainingID: 1, CandidateID: 1, SSE: 0.03, MaxResidual: 0.1},
	}}
	require.NoError(t, runner.selectionDb.Store(ctx, selectionModel.NewSelection("test-run", result, time.Now())))

	match := resultModel.NewMatch("test-run", 1, 1.05, time.Now())
	match.Apply(matcher.Result{Matched: true, CandidateID: 1, Deviation: 0.05})
	require.NoError(t, resultDb.New(db).AppendMany(ctx, []resultModel.Match{match}))

	require.NoError(t, runner.Replay(ctx, "test-run"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	html := string(data)
	assert.True(t, strings.Contains(html, "test-run"))
	assert.True(t, strings.Contains(html, "ideal 1"))
}

func TestRunnerReplayUnknownRun(t *testing.T) {
	ctx := context.Background()
	runner, _, _ := testRunner(t)

	err := runner.Replay(ctx, "unknown-run")
	assert.Error(t, err)
}
