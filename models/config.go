// Package models defines runtime configuration shared by the CLI actions.
package models

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dtnitsch/wordfreq/pkg/mapreduce"
	"gopkg.in/yaml.v3"
)

// DefaultURL is the text counted by `count --default-url`: the Ukrainian law
// on the Constitutional Court, as plain text.
const DefaultURL = "https://raw.githubusercontent.com/frike/ua-legislation/refs/heads/master/%D0%97%D0%B0%D0%BA%D0%BE%D0%BD%D0%B8/%D0%9F%D1%80%D0%BE%20%D0%9A%D0%BE%D0%BD%D1%81%D1%82%D0%B8%D1%82%D1%83%D1%86%D1%96%D0%B9%D0%BD%D0%B8%D0%B9%20%D0%A1%D1%83%D0%B4%20%D0%A3%D0%BA%D1%80%D0%B0%D1%97%D0%BD%D0%B8.txt"

// CountConfig holds runtime configuration for the count command.
// Defaults are overridden by the YAML config file, then by env/flags.
type CountConfig struct {
	Workers        int           `yaml:"workers"`
	Top            int           `yaml:"top"`
	Extract        string        `yaml:"extract"`
	SkipStopwords  bool          `yaml:"skip_stopwords"`
	DetectLanguage bool          `yaml:"detect_language"`
	Format         string        `yaml:"format"`
	ChartWidth     int           `yaml:"chart_width"`
	CacheDir       string        `yaml:"cache_dir"`
	MaxAge         time.Duration `yaml:"max_age"`
	Timeout        time.Duration `yaml:"timeout"`
	DBPath         string        `yaml:"db_path"`
}

// DefaultCountConfig returns the built-in settings.
func DefaultCountConfig() CountConfig {
	return CountConfig{
		Workers:    mapreduce.DefaultWorkers,
		Top:        mapreduce.DefaultTopK,
		Extract:    "full",
		Format:     "text",
		ChartWidth: 50,
		CacheDir:   ".wordfreq-cache",
		MaxAge:     24 * time.Hour,
		Timeout:    30 * time.Second,
	}
}

// LoadConfig reads a YAML file over the defaults. A missing file is not an error.
func LoadConfig(path string) (CountConfig, error) {
	cfg := DefaultCountConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate fails fast on settings the counter cannot run with.
func (c CountConfig) Validate() error {
	opts := mapreduce.Options{Workers: c.Workers, TopK: c.Top}
	if err := opts.Validate(); err != nil {
		return err
	}
	switch c.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("%w: format must be text, json or yaml, got %q", mapreduce.ErrInvalidConfig, c.Format)
	}
	if c.ChartWidth < 1 {
		return fmt.Errorf("%w: chart width must be positive, got %d", mapreduce.ErrInvalidConfig, c.ChartWidth)
	}
	return nil
}
