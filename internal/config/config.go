// Package config reads the optional YAML run file. Every field mirrors a
// command-line flag; flags given explicitly win over the file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/oukeidos/novtl/internal/logger"
)

// File is the on-disk shape of a run file.
type File struct {
	Provider     string `yaml:"provider"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	ExtractModel string `yaml:"extract_model"`
	BatchSize    int    `yaml:"batch_size"`
	Concurrency  int    `yaml:"concurrency"`
	Spacing      string `yaml:"spacing"`
	CallTimeout  string `yaml:"call_timeout"`
	Source       string `yaml:"source"`
	Target       string `yaml:"target"`
	NoSecondary  bool   `yaml:"no_secondary"`

	GlossaryDir     string `yaml:"glossary_dir"`
	RebuildGlossary bool   `yaml:"rebuild_glossary"`
	Redis           Redis  `yaml:"redis"`

	WordPress WordPress `yaml:"wordpress"`
}

type Redis struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
	TTL    string `yaml:"ttl"`
}

type WordPress struct {
	URL string `yaml:"url"`
}

// Durations holds the parsed duration fields of a File.
type Durations struct {
	Spacing     time.Duration
	CallTimeout time.Duration
	RedisTTL    time.Duration
}

// Load reads a run file. Unknown keys are rejected so typos do not pass
// silently.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("failed to parse YAML from %s:\n%s", path, yaml.FormatError(err, false, true))
	}
	if _, err := f.Durations(); err != nil {
		return nil, fmt.Errorf("invalid configuration file %s: %w", path, err)
	}
	logger.Info("Loaded configuration", "path", path)
	return &f, nil
}

// Durations parses the duration strings. Empty strings are zero.
func (f *File) Durations() (Durations, error) {
	var d Durations
	var err error
	if d.Spacing, err = parseDuration("spacing", f.Spacing); err != nil {
		return Durations{}, err
	}
	if d.CallTimeout, err = parseDuration("call_timeout", f.CallTimeout); err != nil {
		return Durations{}, err
	}
	if d.RedisTTL, err = parseDuration("redis.ttl", f.Redis.TTL); err != nil {
		return Durations{}, err
	}
	return d, nil
}

func parseDuration(field, s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}
