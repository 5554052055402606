package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"fitmatch/internal/buildinfo"
	"fitmatch/internal/classify"
	fitmatch "fitmatch/internal/config"
	"fitmatch/internal/ingest"
	"fitmatch/internal/logging"
	"fitmatch/internal/server"
	"fitmatch/internal/setup"
	"fitmatch/internal/shutdown"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx, done); err != nil {
		logger.Fatal(err)
	}

	defer done()
}

func run(ctx context.Context, cancel func()) error {
	var (
		shutdownCh    chan error
		shutdownCount = 3
	)
	config := fitmatch.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(ctx)

	if config.SvcModeType == fitmatch.SvcModeTypeScrape {
		shutdownCount++
	}

	shutdownCh = make(chan error, shutdownCount)

	m, runID, err := env.Runner().Prepare(ctx)
	if err != nil {
		return fmt.Errorf("unable prepare matcher: %w", err)
	}
	logger := logging.FromContext(ctx)
	logger.Infof("serving run %s", runID)

	reporter, err := env.ProvideReporter()(shutdownCh)
	if err != nil {
		return fmt.Errorf("reporter provider function error: %w", err)
	}
	dispatcher, err := env.ProvideDispatcher()(m, reporter, shutdownCh)
	if err != nil {
		return fmt.Errorf("dispatcher provider function error: %w", err)
	}

	if config.SvcModeType == fitmatch.SvcModeTypeScrape {
		scrapper, err := env.ProvideScrapper()(dispatcher, shutdownCh)
		if err != nil {
			return fmt.Errorf("scrapperCaller: %w", err)
		}
		if err := scrapper.Run(ctx); err != nil {
			return fmt.Errorf("scrapperRun: %w", err)
		}
	} else if err := dispatcher.Run(ctx); err != nil {
		return fmt.Errorf("dispatch.Run: %w", err)
	}

	srv, err := server.New(config.SrvAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	mux := http.NewServeMux()

	classifyHandler, err := classify.NewHandler(&config.Classify, dispatcher)
	if err != nil {
		return fmt.Errorf("classify.NewHandler: %w", err)
	}

	mux.Handle("/classify", classifyHandler)
	mux.Handle("/health", server.HandleHealth(ctx))

	if config.SvcModeType == fitmatch.SvcModeTypeCollect {
		ingestHandler, err := ingest.NewHandler(&config.Ingest, dispatcher)
		if err != nil {
			return fmt.Errorf("ingest.NewHandler: %w", err)
		}
		mux.Handle("/ingest", ingestHandler)
	}

	go func() {
		if err := srv.ServeHTTPHandler(ctx, mux); err != nil {
			cancel()
		}
	}()

	go func() {
		if err := http.ListenAndServe("0.0.0.0:8080", nil); err != nil {
			cancel()
		}
	}()

	return <-shutdownCh
}
