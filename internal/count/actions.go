package count

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/wordfreq/internal/common"
	"github.com/dtnitsch/wordfreq/models"
	"github.com/dtnitsch/wordfreq/pkg/analytics"
	"github.com/dtnitsch/wordfreq/pkg/caching"
	"github.com/dtnitsch/wordfreq/pkg/chart"
	"github.com/dtnitsch/wordfreq/pkg/db"
	"github.com/dtnitsch/wordfreq/pkg/fetcher"
	"github.com/dtnitsch/wordfreq/pkg/mapreduce"
	"github.com/dtnitsch/wordfreq/pkg/parser"
	"github.com/dtnitsch/wordfreq/pkg/storage"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Exit codes.
const (
	exitUsage   = 1
	exitRuntime = 2
)

// NewLogger builds the JSON stderr logger used by every command.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// DBFlag is the run store location shared by count, runs and run.
func DBFlag() cli.Flag {
	return &cli.StringFlag{Name: "db", Usage: "SQLite run store (default: wordfreq.db next to the binary)", EnvVars: []string{"WORDFREQ_DB"}}
}

// Flags returns the flags of the count command.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "url", Usage: "count the text of a web page"},
		&cli.BoolFlag{Name: "default-url", Usage: "count the built-in sample document"},
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "count a local text file (- for stdin)"},
		&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "count the given text"},
		&cli.IntFlag{Name: "workers", Aliases: []string{"n"}, Value: mapreduce.DefaultWorkers, Usage: "number of parallel map workers", EnvVars: []string{"WORDFREQ_WORKERS"}},
		&cli.IntFlag{Name: "top", Aliases: []string{"k"}, Value: mapreduce.DefaultTopK, Usage: "how many words to report", EnvVars: []string{"WORDFREQ_TOP"}},
		&cli.StringFlag{Name: "format", Value: "text", Usage: "output format: text, json or yaml", EnvVars: []string{"WORDFREQ_FORMAT"}},
		&cli.BoolFlag{Name: "chart", Usage: "render the ranking as a bar chart (text format)"},
		&cli.IntFlag{Name: "chart-width", Value: chart.DefaultWidth, Usage: "cells of the longest bar"},
		&cli.StringFlag{Name: "extract", Value: "full", Usage: "HTML extraction: full, article or none", EnvVars: []string{"WORDFREQ_EXTRACT"}},
		&cli.BoolFlag{Name: "skip-stopwords", Usage: "leave common function words out of the ranking"},
		&cli.BoolFlag{Name: "detect-language", Usage: "detect the language of the text"},
		&cli.BoolFlag{Name: "record", Usage: "store the run in the SQLite run store"},
		DBFlag(),
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write the report to a file instead of stdout"},
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "wordfreq.yaml", Usage: "YAML config file (missing is fine)", EnvVars: []string{"WORDFREQ_CONFIG"}},
		&cli.DurationFlag{Name: "max-age", Usage: "reuse cached pages younger than this (e.g. 1h, 0 disables)"},
		&cli.BoolFlag{Name: "force-fetch", Usage: "ignore the page cache"},
		&cli.StringFlag{Name: "cache-dir", Usage: "page cache directory", EnvVars: []string{"WORDFREQ_CACHE_DIR"}},
		&cli.DurationFlag{Name: "timeout", Usage: "HTTP timeout (e.g. 30s)"},
	}
}

// applyFlags overlays flags (and their WORDFREQ_* env vars) that were
// explicitly set onto the file configuration.
func applyFlags(c *cli.Context, cfg *models.CountConfig) {
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("top") {
		cfg.Top = c.Int("top")
	}
	if c.IsSet("extract") {
		cfg.Extract = c.String("extract")
	}
	if c.IsSet("skip-stopwords") {
		cfg.SkipStopwords = c.Bool("skip-stopwords")
	}
	if c.IsSet("detect-language") {
		cfg.DetectLanguage = c.Bool("detect-language")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("chart-width") {
		cfg.ChartWidth = c.Int("chart-width")
	}
	if c.IsSet("cache-dir") {
		cfg.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("max-age") {
		cfg.MaxAge = c.Duration("max-age")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
}

func CountAction(c *cli.Context) error {
	// Exit only after execute has run its deferred cleanup.
	if code := execute(c, os.Stdin, os.Stdout); code != 0 {
		os.Exit(code)
	}
	return nil
}

// execute runs the count command and returns the process exit code.
func execute(c *cli.Context, stdin io.Reader, stdout io.Writer) int {
	logger := NewLogger(c)

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return exitUsage
	}
	applyFlags(c, &cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return exitUsage
	}
	mode, err := parser.ParseMode(cfg.Extract)
	if err != nil {
		logger.Error("invalid extract mode", "error", err)
		return exitUsage
	}

	src, err := ResolveSource(c.String("url"), c.Bool("default-url"), c.String("file"), c.String("text"), c.IsSet("text"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Need help? Run: wordfreq quickstart")
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := caching.NewCache(cfg.CacheDir, cfg.MaxAge)
	if err != nil {
		logger.Warn("cache disabled", "error", err)
	}

	r := &Runner{
		Logger: logger,
		Loader: &Loader{
			Fetcher: fetcher.NewFetcher(cfg.Timeout),
			Cache:   cache,
			Parser:  &parser.Parser{},
			Storage: &storage.Storage{},
			Stdin:   stdin,
			Logger:  logger,
		},
		Analytics: analytics.New(),
	}

	if c.Bool("record") {
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			return exitRuntime
		}
		defer database.Close()
		r.DB = database
	}

	report, err := r.Run(ctx, cfg, src, mode, c.Bool("force-fetch"))
	if err != nil {
		logger.Error("count failed", "error", err)
		if errors.Is(err, mapreduce.ErrInvalidConfig) {
			return exitUsage
		}
		return exitRuntime
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, report, cfg.Format, c.Bool("chart"), cfg.ChartWidth); err != nil {
		logger.Error("failed to render report", "error", err)
		return exitRuntime
	}

	if out := c.String("output"); out != "" {
		if err := (&storage.Storage{}).SaveFile(out, buf.Bytes()); err != nil {
			logger.Error("failed to write output", "error", err, "path", out)
			return exitRuntime
		}
		logger.Info("Report written", "path", out)
		return 0
	}

	if _, err := stdout.Write(buf.Bytes()); err != nil {
		logger.Error("failed to write report", "error", err)
		return exitRuntime
	}
	return 0
}

// Runner loads a source, counts it and optionally records the run.
type Runner struct {
	Logger    *slog.Logger
	Loader    *Loader
	Analytics *analytics.Analytics
	DB        *db.DB // nil skips recording
}

// Run counts one source. Load failures stop before any counting starts.
func (r *Runner) Run(ctx context.Context, cfg models.CountConfig, src Source, mode parser.Mode, forceFetch bool) (*Report, error) {
	loaded, err := r.Loader.Load(ctx, src, mode, forceFetch)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s source: %w", src.Kind, err)
	}

	opts := mapreduce.Options{
		Workers: cfg.Workers,
		TopK:    cfg.Top,
		Logger:  r.Logger,
	}
	if cfg.SkipStopwords {
		opts.Exclude = analytics.IsStopword
	}

	result, err := mapreduce.Count(ctx, loaded.Text, opts)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("Counted words", "tokens", result.Tokens, "unique", len(result.Counts), "workers", result.Workers, "elapsed", result.Elapsed)
	r.Logger.Debug("Most frequent overall", "keywords", mapreduce.TopKeywords(result.Counts, 5))

	report := &Report{
		Status: "success",
		Source: SourceInfo{
			Kind:        src.Kind,
			Location:    src.Label(),
			Title:       loaded.Title,
			ContentType: loaded.ContentType,
			FromCache:   loaded.FromCache,
			ContentHash: common.ContentHash([]byte(loaded.Text)),
		},
		Stats: Stats{
			Summary:          r.Analytics.Summarize(loaded.Text, result.Counts, cfg.DetectLanguage),
			Workers:          result.Workers,
			Chunks:           result.Chunks,
			TotalTimeSeconds: result.Elapsed.Seconds(),
		},
		Top: result.Top,
	}

	if r.DB != nil {
		if err := r.record(report, cfg, result); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (r *Runner) record(report *Report, cfg models.CountConfig, result *mapreduce.Result) error {
	previous, err := r.DB.FindRunByHash(report.Source.ContentHash, cfg.Workers, cfg.Top)
	if err != nil {
		return err
	}
	if previous != nil {
		report.Stats.PreviousRunID = previous.RunID
		r.Logger.Info("Same content counted before", "previous_run_id", previous.RunID)
	}

	words := make([]db.RankedWord, len(report.Top))
	for i, e := range report.Top {
		words[i] = db.RankedWord{Rank: i + 1, Word: e.Word, Count: e.Count}
	}

	runID, err := r.DB.RecordRun(db.Run{
		SourceKind:   report.Source.Kind,
		Location:     report.Source.Location,
		ContentHash:  report.Source.ContentHash,
		Workers:      cfg.Workers,
		TopK:         cfg.Top,
		TotalTokens:  result.Tokens,
		UniqueTokens: len(result.Counts),
		Language:     report.Stats.Language,
		Elapsed:      result.Elapsed,
	}, words)
	if err != nil {
		return err
	}
	report.Stats.RunID = runID
	r.Logger.Info("Run recorded", "run_id", runID, "db", r.DB.Path())
	return nil
}

// WriteReport renders report as a numbered list or bar chart (text), or as
// a JSON or YAML document.
func WriteReport(w io.Writer, report *Report, format string, withChart bool, chartWidth int) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshalling report to JSON: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("error marshalling report to YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "text", "":
		if withChart {
			return chart.RenderBars(w, chart.Title(len(report.Top)), report.Top, chartWidth)
		}
		return mapreduce.PrintTopKeywords(w, report.Top)
	default:
		return fmt.Errorf("%w: unknown format %q", mapreduce.ErrInvalidConfig, format)
	}
}
