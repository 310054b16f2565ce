package count

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dtnitsch/wordfreq/models"
	"github.com/dtnitsch/wordfreq/pkg/analytics"
	"github.com/dtnitsch/wordfreq/pkg/caching"
	"github.com/dtnitsch/wordfreq/pkg/db"
	"github.com/dtnitsch/wordfreq/pkg/fetcher"
	"github.com/dtnitsch/wordfreq/pkg/mapreduce"
	"github.com/dtnitsch/wordfreq/pkg/parser"
	"github.com/dtnitsch/wordfreq/pkg/storage"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const scenario = "the Cat sat on the MAT. The cat ran."

func newTestRunner(t *testing.T, cache *caching.Cache) *Runner {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	return &Runner{
		Logger: logger,
		Loader: &Loader{
			Fetcher: fetcher.NewFetcher(5 * time.Second),
			Cache:   cache,
			Parser:  &parser.Parser{},
			Storage: &storage.Storage{},
			Stdin:   strings.NewReader(""),
			Logger:  logger,
		},
		Analytics: analytics.New(),
	}
}

func testConfig(workers, top int) models.CountConfig {
	cfg := models.DefaultCountConfig()
	cfg.Workers = workers
	cfg.Top = top
	return cfg
}

func TestRun_TextSource(t *testing.T) {
	r := newTestRunner(t, nil)

	report, err := r.Run(context.Background(), testConfig(4, 3), Source{Kind: db.SourceText, Location: scenario}, parser.ModeFull, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []mapreduce.Entry{{Word: "the", Count: 3}, {Word: "cat", Count: 2}, {Word: "mat", Count: 1}}
	if !reflect.DeepEqual(report.Top, want) {
		t.Errorf("Top = %v, want %v", report.Top, want)
	}
	if report.Stats.TotalWords != 9 || report.Stats.UniqueWords != 6 {
		t.Errorf("Stats = %+v, want 9 total and 6 unique", report.Stats)
	}
	if report.Stats.Workers != 4 || report.Stats.Chunks != 4 {
		t.Errorf("Workers/Chunks = %d/%d, want 4/4", report.Stats.Workers, report.Stats.Chunks)
	}
	if report.Source.Location != "(inline text)" {
		t.Errorf("Location = %q", report.Source.Location)
	}
	if report.Source.ContentHash == "" {
		t.Error("ContentHash is empty")
	}
}

func TestRun_SkipStopwords(t *testing.T) {
	r := newTestRunner(t, nil)
	cfg := testConfig(2, 3)
	cfg.SkipStopwords = true

	report, err := r.Run(context.Background(), cfg, Source{Kind: db.SourceText, Location: scenario}, parser.ModeFull, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []mapreduce.Entry{{Word: "cat", Count: 2}, {Word: "mat", Count: 1}, {Word: "ran", Count: 1}}
	if !reflect.DeepEqual(report.Top, want) {
		t.Errorf("Top = %v, want %v", report.Top, want)
	}
	// Totals still include stopwords.
	if report.Stats.TotalWords != 9 {
		t.Errorf("TotalWords = %d, want 9", report.Stats.TotalWords)
	}
}

func TestRun_FileAndStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.txt")
	if err := os.WriteFile(path, []byte(scenario), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	r := newTestRunner(t, nil)
	fromFile, err := r.Run(context.Background(), testConfig(3, 2), Source{Kind: db.SourceFile, Location: path}, parser.ModeFull, false)
	if err != nil {
		t.Fatalf("Run(file) error = %v", err)
	}

	r.Loader.Stdin = strings.NewReader(scenario)
	fromStdin, err := r.Run(context.Background(), testConfig(1, 2), Source{Kind: db.SourceStdin, Location: "-"}, parser.ModeFull, false)
	if err != nil {
		t.Fatalf("Run(stdin) error = %v", err)
	}

	if !reflect.DeepEqual(fromFile.Top, fromStdin.Top) {
		t.Errorf("file top %v != stdin top %v", fromFile.Top, fromStdin.Top)
	}
	if fromFile.Source.ContentHash != fromStdin.Source.ContentHash {
		t.Error("same text produced different content hashes")
	}
}

func TestRun_MissingFile(t *testing.T) {
	r := newTestRunner(t, nil)
	_, err := r.Run(context.Background(), testConfig(4, 10), Source{Kind: db.SourceFile, Location: filepath.Join(t.TempDir(), "missing.txt")}, parser.ModeFull, false)
	if err == nil {
		t.Fatal("Run() expected error for missing file")
	}
}

func TestRun_EmptyText(t *testing.T) {
	r := newTestRunner(t, nil)
	report, err := r.Run(context.Background(), testConfig(4, 10), Source{Kind: db.SourceText, Location: ""}, parser.ModeFull, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Top) != 0 || report.Stats.TotalWords != 0 {
		t.Errorf("empty text report = %+v", report)
	}
}

func TestRun_URLSourceUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><head><title>Cats</title></head><body><p>The cat sat.</p><p>The cat ran.</p><script>var hidden = 1;</script></body></html>`))
		case "/empty":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><script>var only = "code";</script></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cache, err := caching.NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	r := newTestRunner(t, cache)
	src := Source{Kind: db.SourceURL, Location: srv.URL + "/page"}

	first, err := r.Run(context.Background(), testConfig(2, 2), src, parser.ModeFull, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []mapreduce.Entry{{Word: "cat", Count: 2}, {Word: "the", Count: 2}}
	if !reflect.DeepEqual(first.Top, want) {
		t.Errorf("Top = %v, want %v", first.Top, want)
	}
	if first.Source.Title != "Cats" {
		t.Errorf("Title = %q, want Cats", first.Source.Title)
	}
	if first.Source.FromCache {
		t.Error("first run reported a cache hit")
	}

	second, err := r.Run(context.Background(), testConfig(2, 2), src, parser.ModeFull, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !second.Source.FromCache {
		t.Error("second run did not use the cache")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}

	if _, err := r.Run(context.Background(), testConfig(2, 2), src, parser.ModeFull, true); err != nil {
		t.Fatalf("Run(force) error = %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits after force fetch = %d, want 2", got)
	}

	t.Run("no text extracted", func(t *testing.T) {
		_, err := r.Run(context.Background(), testConfig(2, 2), Source{Kind: db.SourceURL, Location: srv.URL + "/empty"}, parser.ModeFull, false)
		if !errors.Is(err, ErrNoText) {
			t.Errorf("Run() error = %v, want ErrNoText", err)
		}
	})

	t.Run("http error", func(t *testing.T) {
		_, err := r.Run(context.Background(), testConfig(2, 2), Source{Kind: db.SourceURL, Location: srv.URL + "/missing"}, parser.ModeFull, false)
		if err == nil {
			t.Error("Run() expected error for 404")
		}
	})
}

func TestRun_Record(t *testing.T) {
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	r := newTestRunner(t, nil)
	r.DB = database
	src := Source{Kind: db.SourceText, Location: scenario}

	first, err := r.Run(context.Background(), testConfig(4, 3), src, parser.ModeFull, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if first.Stats.RunID == 0 || first.Stats.PreviousRunID != 0 {
		t.Fatalf("first run ids = %d/%d", first.Stats.RunID, first.Stats.PreviousRunID)
	}

	second, err := r.Run(context.Background(), testConfig(4, 3), src, parser.ModeFull, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if second.Stats.PreviousRunID != first.Stats.RunID {
		t.Errorf("PreviousRunID = %d, want %d", second.Stats.PreviousRunID, first.Stats.RunID)
	}

	words, err := database.GetRunWords(second.Stats.RunID)
	if err != nil {
		t.Fatalf("GetRunWords() error = %v", err)
	}
	if len(words) != 3 || words[0].Word != "the" || words[0].Rank != 1 {
		t.Errorf("recorded words = %+v", words)
	}
}

func TestRun_InvalidWorkers(t *testing.T) {
	r := newTestRunner(t, nil)
	_, err := r.Run(context.Background(), testConfig(0, 3), Source{Kind: db.SourceText, Location: scenario}, parser.ModeFull, false)
	if !errors.Is(err, mapreduce.ErrInvalidConfig) {
		t.Errorf("Run() error = %v, want ErrInvalidConfig", err)
	}
}

func TestWriteReport(t *testing.T) {
	report := &Report{
		Status: "success",
		Source: SourceInfo{Kind: db.SourceText, Location: "(inline text)", ContentHash: "abc"},
		Stats: Stats{
			Summary: analytics.Summary{TotalWords: 9, UniqueWords: 6},
			Workers: 4,
			Chunks:  4,
		},
		Top: []mapreduce.Entry{{Word: "the", Count: 3}, {Word: "cat", Count: 2}},
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteReport(&buf, report, "text", false, 50); err != nil {
			t.Fatalf("WriteReport() error = %v", err)
		}
		if got, want := buf.String(), "1. the: 3\n2. cat: 2\n"; got != want {
			t.Errorf("text = %q, want %q", got, want)
		}
	})

	t.Run("chart", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteReport(&buf, report, "text", true, 6); err != nil {
			t.Fatalf("WriteReport() error = %v", err)
		}
		out := buf.String()
		if !strings.HasPrefix(out, "Top 2 Most Frequent Words\n") {
			t.Errorf("chart missing title:\n%s", out)
		}
		if !strings.Contains(out, "the | ██████ 3") {
			t.Errorf("chart missing full bar:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteReport(&buf, report, "json", false, 50); err != nil {
			t.Fatalf("WriteReport() error = %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		stats := decoded["stats"].(map[string]any)
		if stats["total_words"] != float64(9) {
			t.Errorf("stats.total_words = %v, want 9", stats["total_words"])
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteReport(&buf, report, "yaml", false, 50); err != nil {
			t.Fatalf("WriteReport() error = %v", err)
		}
		var decoded struct {
			Stats struct {
				UniqueWords int `yaml:"unique_words"`
			} `yaml:"stats"`
			Top []mapreduce.Entry `yaml:"top"`
		}
		if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid YAML: %v", err)
		}
		if decoded.Stats.UniqueWords != 6 || len(decoded.Top) != 2 {
			t.Errorf("decoded = %+v", decoded)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if err := WriteReport(&bytes.Buffer{}, report, "xml", false, 50); !errors.Is(err, mapreduce.ErrInvalidConfig) {
			t.Errorf("WriteReport() error = %v, want ErrInvalidConfig", err)
		}
	})
}

func TestResolveSource(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		def      bool
		file     string
		text     string
		textSet  bool
		wantKind string
		wantErr  bool
	}{
		{name: "nothing means stdin", wantKind: db.SourceStdin},
		{name: "url", url: " https://example.com/a ", wantKind: db.SourceURL},
		{name: "default url", def: true, wantKind: db.SourceURL},
		{name: "file", file: "book.txt", wantKind: db.SourceFile},
		{name: "dash file is stdin", file: "-", wantKind: db.SourceStdin},
		{name: "empty text", textSet: true, wantKind: db.SourceText},
		{name: "bad url", url: "ftp://example.com", wantErr: true},
		{name: "two sources", url: "https://example.com", file: "book.txt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := ResolveSource(tt.url, tt.def, tt.file, tt.text, tt.textSet)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && src.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", src.Kind, tt.wantKind)
			}
		})
	}

	src, _ := ResolveSource("", true, "", "", false)
	if src.Location != models.DefaultURL {
		t.Errorf("default url location = %q", src.Location)
	}
}

// runCountCommand drives execute through a real cli app and returns the exit code.
func runCountCommand(t *testing.T, stdout io.Writer, args ...string) int {
	t.Helper()
	code := -1
	app := &cli.App{
		Name:  "wordfreq",
		Flags: []cli.Flag{&cli.BoolFlag{Name: "quiet"}, &cli.BoolFlag{Name: "verbose"}},
		Commands: []*cli.Command{{
			Name:  "count",
			Flags: Flags(),
			Action: func(c *cli.Context) error {
				code = execute(c, strings.NewReader(""), stdout)
				return nil
			},
		}},
	}
	argv := append([]string{"wordfreq", "--quiet", "count", "--cache-dir", t.TempDir(), "--config", filepath.Join(t.TempDir(), "none.yaml")}, args...)
	if err := app.Run(argv); err != nil {
		t.Fatalf("app.Run() error = %v", err)
	}
	return code
}

func TestExecute_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")

	t.Run("success writes report and records run", func(t *testing.T) {
		var out bytes.Buffer
		code := runCountCommand(t, &out, "--text", scenario, "--top", "2", "--record", "--db", dbPath)
		if code != 0 {
			t.Fatalf("exit code = %d, want 0", code)
		}
		if got, want := out.String(), "1. the: 3\n2. cat: 2\n"; got != want {
			t.Errorf("stdout = %q, want %q", got, want)
		}
	})

	t.Run("output file", func(t *testing.T) {
		outPath := filepath.Join(dir, "reports", "r.json")
		if code := runCountCommand(t, io.Discard, "--text", scenario, "--format", "json", "--output", outPath); code != 0 {
			t.Fatalf("exit code = %d, want 0", code)
		}
		data, err := os.ReadFile(outPath)
		if err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		if !json.Valid(data) {
			t.Errorf("output is not JSON: %s", data)
		}
	})

	t.Run("load failure returns instead of exiting", func(t *testing.T) {
		code := runCountCommand(t, io.Discard, "--file", filepath.Join(dir, "missing.txt"), "--record", "--db", dbPath)
		if code != exitRuntime {
			t.Errorf("exit code = %d, want %d", code, exitRuntime)
		}
	})

	t.Run("two sources", func(t *testing.T) {
		if code := runCountCommand(t, io.Discard, "--text", "a", "--file", "b.txt"); code != exitUsage {
			t.Errorf("exit code = %d, want %d", code, exitUsage)
		}
	})

	t.Run("invalid workers", func(t *testing.T) {
		if code := runCountCommand(t, io.Discard, "--text", "a", "--workers", "0"); code != exitUsage {
			t.Errorf("exit code = %d, want %d", code, exitUsage)
		}
	})

	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	defer database.Close()
	recorded, err := database.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(recorded) != 1 {
		t.Errorf("recorded runs = %d, want 1 (failed load must not record)", len(recorded))
	}
}
