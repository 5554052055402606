package srvenv

import (
	"context"

	"fitmatch/internal/analysis"
	"fitmatch/internal/database"
	"fitmatch/internal/dispatch"
	"fitmatch/internal/report"
	"fitmatch/internal/scrape"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database   *database.DB
	runner     *analysis.Runner
	dispatcher dispatch.ProvideFn
	reporter   report.ProvideFn
	scrapper   scrape.ProvideFn
}

func (s *SrvEnv) ProvideScrapper() scrape.ProvideFn {
	return s.scrapper
}

func (s *SrvEnv) ProvideReporter() report.ProvideFn {
	return s.reporter
}

func (s *SrvEnv) ProvideDispatcher() dispatch.ProvideFn {
	return s.dispatcher
}

func (s *SrvEnv) Runner() *analysis.Runner {
	return s.runner
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func WithScrapper(fn scrape.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.scrapper = fn
		return s
	}
}

func WithReporter(fn report.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.reporter = fn
		return s
	}
}

func WithDispatcher(fn dispatch.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.dispatcher = fn
		return s
	}
}

func WithRunner(runner *analysis.Runner) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.runner = runner
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
