package report

import (
	"encoding/json"
	"time"

	"fitmatch/internal/httputil"
)

type Config struct {
	AllowReports         bool          `envconfig:"FITMATCH_ALLOW_REPORTS" default:"true"`
	Targets              Targets       `envconfig:"FITMATCH_REPORT_TARGETS"`
	Interval             time.Duration `envconfig:"FITMATCH_REPORT_INTERVAL" default:"5s"`
	RequestTimeout       time.Duration `envconfig:"FITMATCH_REPORT_REQUEST_TIMEOUT" default:"30s"`
	MaxConcurrentRequest int           `envconfig:"FITMATCH_REPORT_MAX_CONCURRENT_REQUEST" default:"64"`
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
	URL        string                    `json:"url"`
	Name       string                    `json:"name"`
	HTTPConfig httputil.HTTPClientConfig `json:"httpConfig"`
}
