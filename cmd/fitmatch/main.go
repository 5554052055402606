package main

import (
	"context"
	"fmt"

	fitmatch "fitmatch/internal/config"
	"fitmatch/internal/logging"
	"fitmatch/internal/setup"
	"fitmatch/internal/shutdown"
)

func main() {
	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx); err != nil {
		logger.Fatal(err)
	}
	done()
}

func run(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	config := fitmatch.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(ctx)

	if config.ReplayRun != "" {
		if err := env.Runner().Replay(ctx, config.ReplayRun); err != nil {
			return fmt.Errorf("analysis replay: %w", err)
		}
		logger.Infof("replay complete, run %s, report written to %s", config.ReplayRun, config.Viz.OutputFile)
		return nil
	}

	runID, err := env.Runner().Run(ctx)
	if err != nil {
		return fmt.Errorf("analysis run: %w", err)
	}

	logger.Infof("analysis complete, run %s, report written to %s", runID, config.Viz.OutputFile)
	return nil
}
