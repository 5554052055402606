package scrape

import (
	"encoding/json"
	"time"
)

type Config struct {
	Targets              Targets       `envconfig:"FITMATCH_SCRAPE_TARGET_URLS"`
	MaxConcurrentRequest int           `envconfig:"FITMATCH_SCRAPE_MAX_CONCURRENT_REQUEST" default:"64"`
	Interval             time.Duration `envconfig:"FITMATCH_SCRAPE_INTERVAL" default:"1s"`
	RequestTimeout       time.Duration `envconfig:"FITMATCH_SCRAPE_REQUEST_TIMEOUT" default:"30s"`
}

type Targets []Target

func (ts *Targets) Decode(value string) error {
	targets := []Target{}
	if err := json.Unmarshal([]byte(value), &targets); err != nil {
		return err
	}
	*ts = targets
	return nil
}

type Target struct {
	URL   string `json:"url"`
	RunID string `json:"runId"`
}
