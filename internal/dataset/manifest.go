package dataset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest names the three input files of an analysis run.
type Manifest struct {
	TrainingFile string `yaml:"training"`
	IdealFile    string `yaml:"ideal"`
	TestFile     string `yaml:"test"`
}

// Resolve applies the YAML manifest, when configured, on top of the
// individual file paths.
func (c *Config) Resolve() error {
	if c.Manifest == "" {
		return nil
	}

	raw, err := os.ReadFile(c.Manifest)
	if err != nil {
		return fmt.Errorf("read dataset manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("parse dataset manifest: %w", err)
	}

	if m.TrainingFile != "" {
		c.TrainingFile = m.TrainingFile
	}
	if m.IdealFile != "" {
		c.IdealFile = m.IdealFile
	}
	if m.TestFile != "" {
		c.TestFile = m.TestFile
	}

	return nil
}
