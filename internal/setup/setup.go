// Package setup wires the environment configuration into the service
// dependencies.
package setup

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"fitmatch/internal/analysis"
	"fitmatch/internal/database"
	"fitmatch/internal/dataset"
	"fitmatch/internal/dispatch"
	"fitmatch/internal/logging"
	"fitmatch/internal/matcher"
	"fitmatch/internal/report"
	"fitmatch/internal/scrape"
	"fitmatch/internal/srvenv"
	"fitmatch/internal/viz"
)

const (
	SvcModeScrape  string = "SCRAPE"
	SvcModeCollect string = "COLLECT"
)

type SvcModeConfigProvider interface {
	SvcMode() string
}

type DatasetConfigProvider interface {
	DatasetConfig() *dataset.Config
}

type MatcherConfigProvider interface {
	MatcherConfig() *matcher.Config
}

type DispatchConfigProvider interface {
	DispatchConfig() *dispatch.Config
}

type ReporterConfigProvider interface {
	ReportConfig() *report.Config
}

type ScrapeConfigProvider interface {
	ScrapeConfig() *scrape.Config
}

type VizConfigProvider interface {
	VizConfig() *viz.Config
}

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var db *database.DB
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %v", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if datasetConfigProvider, ok := config.(DatasetConfigProvider); ok {
		logger.Info("configuring analysis runner")
		matcherConfigProvider, ok := config.(MatcherConfigProvider)
		if !ok {
			return nil, fmt.Errorf("unable read matcher config")
		}
		vizConfigProvider, ok := config.(VizConfigProvider)
		if !ok {
			return nil, fmt.Errorf("unable read viz config")
		}
		runner := analysis.New(
			db,
			datasetConfigProvider.DatasetConfig(),
			matcherConfigProvider.MatcherConfig(),
			vizConfigProvider.VizConfig(),
		)
		serverEnvOpts = append(serverEnvOpts, srvenv.WithRunner(runner))
	}

	if reportConfigProvider, ok := config.(ReporterConfigProvider); ok {
		logger.Info("configuring reporter")
		provideFn, err := ProvideReporterFor(reportConfigProvider, db)
		if err != nil {
			return nil, fmt.Errorf("unable create reporter provide function: %v", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithReporter(provideFn))
	}

	if dispatchConfigProvider, ok := config.(DispatchConfigProvider); ok {
		logger.Info("configuring dispatcher")
		provideFn, err := ProvideDispatcherFor(dispatchConfigProvider, db)
		if err != nil {
			return nil, fmt.Errorf("unable create dispatcher provide function: %v", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDispatcher(provideFn))
	}

	if svcModeConfigProvider, ok := config.(SvcModeConfigProvider); ok && svcModeConfigProvider.SvcMode() == SvcModeScrape {
		if scrapeConfigProvider, ok := config.(ScrapeConfigProvider); ok {
			logger.Info("configuring scrapper")
			provideFn, err := ProvideScrapperFor(scrapeConfigProvider)
			if err != nil {
				return nil, fmt.Errorf("unable create scrapper provide function: %v", err)
			}
			serverEnvOpts = append(serverEnvOpts, srvenv.WithScrapper(provideFn))
		}
	}
	return srvenv.New(serverEnvOpts...), nil
}

func ProvideScrapperFor(provider ScrapeConfigProvider) (scrape.ProvideFn, error) {
	cfg := provider.ScrapeConfig()
	return func(dispatcher dispatch.Manager, shutdownCh chan<- error) (scrape.Manager, error) {
		return scrape.New(
			dispatcher,
			shutdownCh,
			scrape.WithInterval(cfg.Interval),
			scrape.WithRequestTimeout(cfg.RequestTimeout),
			scrape.WithMaxConcurrentRequest(cfg.MaxConcurrentRequest),
			scrape.WithTargetUrls(cfg.Targets),
		)
	}, nil
}

func ProvideReporterFor(provider ReporterConfigProvider, db *database.DB) (report.ProvideFn, error) {
	cfg := provider.ReportConfig()
	targets := cfg.Targets
	if !cfg.AllowReports {
		targets = nil
	}
	return func(shutdownCh chan<- error) (report.Manager, error) {
		return report.New(
			db,
			shutdownCh,
			report.WithMaxConcurrentRequest(cfg.MaxConcurrentRequest),
			report.WithInterval(cfg.Interval),
			report.WithRequestTimeout(cfg.RequestTimeout),
			report.WithTargets(targets),
		)
	}, nil
}

func ProvideDispatcherFor(provider DispatchConfigProvider, db *database.DB) (dispatch.ProvideFn, error) {
	cfg := provider.DispatchConfig()
	return func(m *matcher.Matcher, notifier report.Manager, shutdownCh chan<- error) (dispatch.Manager, error) {
		return dispatch.New(
			db,
			m,
			notifier,
			shutdownCh,
			dispatch.WithRebuildDBTime(cfg.RebuildDBTime),
			dispatch.WithMaxItemsStored(cfg.MaxItemsStored),
			dispatch.WithMaxStorageTime(cfg.MaxStorageTime),
			dispatch.WithDBFlushSize(cfg.DBFlushSize),
			dispatch.WithDBFlushTime(cfg.DBFlushTime),
		)
	}, nil
}
