package fitmatch

import (
	"fitmatch/internal/classify"
	"fitmatch/internal/database"
	"fitmatch/internal/dataset"
	"fitmatch/internal/dispatch"
	"fitmatch/internal/ingest"
	"fitmatch/internal/matcher"
	"fitmatch/internal/report"
	"fitmatch/internal/scrape"
	"fitmatch/internal/setup"
	"fitmatch/internal/viz"
)

var (
	_ setup.DatabaseConfigProvider = (*Config)(nil)
	_ setup.DatasetConfigProvider  = (*Config)(nil)
	_ setup.MatcherConfigProvider  = (*Config)(nil)
	_ setup.DispatchConfigProvider = (*Config)(nil)
	_ setup.ReporterConfigProvider = (*Config)(nil)
	_ setup.ScrapeConfigProvider   = (*Config)(nil)
	_ setup.VizConfigProvider      = (*Config)(nil)
	_ setup.SvcModeConfigProvider  = (*Config)(nil)
)

const (
	SvcModeTypeCollect = "COLLECT"
	SvcModeTypeScrape  = "SCRAPE"
)

type Config struct {
	SvcModeType string `envconfig:"FITMATCH_SVC_MODE" default:"COLLECT"`
	SrvAddr     string `envconfig:"FITMATCH_ADDR" default:":8787"`
	// when set, re-render the report for a stored run instead of
	// running a new analysis
	ReplayRun string `envconfig:"FITMATCH_REPLAY_RUN"`
	Dataset     dataset.Config
	Matcher     matcher.Config
	Dispatch    dispatch.Config
	Database    database.Config
	Report      report.Config
	Scrape      scrape.Config
	Classify    classify.Config
	Ingest      ingest.Config
	Viz         viz.Config
}

func (c Config) SvcMode() string {
	return c.SvcModeType
}

func (c Config) DatasetConfig() *dataset.Config {
	return &c.Dataset
}

func (c Config) MatcherConfig() *matcher.Config {
	return &c.Matcher
}

func (c Config) DispatchConfig() *dispatch.Config {
	return &c.Dispatch
}

func (c Config) ReportConfig() *report.Config {
	return &c.Report
}

func (c Config) ScrapeConfig() *scrape.Config {
	return &c.Scrape
}

func (c Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c Config) VizConfig() *viz.Config {
	return &c.Viz
}
