package runs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dtnitsch/wordfreq/pkg/chart"
	dbpkg "github.com/dtnitsch/wordfreq/pkg/db"
	"github.com/dtnitsch/wordfreq/pkg/mapreduce"
	"github.com/urfave/cli/v2"
)

// ErrInvalidRunID marks a run argument that is not a positive integer.
var ErrInvalidRunID = errors.New("invalid run ID")

func RunsAction(c *cli.Context) error {
	database, err := dbpkg.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	return listRuns(os.Stdout, database, c.Int("limit"))
}

// RunAction shows the ranked words of one run, or of the latest run when no ID is given.
func RunAction(c *cli.Context) error {
	database, err := dbpkg.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runID, err := runIDOrLatest(c.Args().First(), database)
	if err != nil {
		return err
	}
	return showRun(os.Stdout, database, runID, c.Bool("chart"), c.Int("chart-width"))
}

func listRuns(w io.Writer, database *dbpkg.DB, limit int) error {
	runs, err := database.ListRuns(limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return nil
	}

	fmt.Fprintf(w, "%-6s %-20s %-6s %-8s %-5s %-10s %-10s %-40s\n",
		"ID", "Created", "Kind", "Workers", "Top", "Tokens", "Language", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, r := range runs {
		language := r.Language
		if language == "" {
			language = "-"
		}
		fmt.Fprintf(w, "%-6d %-20s %-6s %-8d %-5d %-10d %-10s %-40s\n",
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.SourceKind,
			r.Workers,
			r.TopK,
			r.TotalTokens,
			language,
			truncate(r.Location, 40),
		)
	}

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(runs))
	fmt.Fprintf(w, "\nTip: Use 'wordfreq run <id>' to see the ranked words\n")
	return nil
}

func showRun(w io.Writer, database *dbpkg.DB, runID int64, withChart bool, chartWidth int) error {
	run, err := database.GetRun(runID)
	if err != nil {
		return err
	}
	words, err := database.GetRunWords(runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run %d\n", run.RunID)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Created:     %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Source:      [%s] %s\n", run.SourceKind, run.Location)
	fmt.Fprintf(w, "Settings:    %d workers, top %d\n", run.Workers, run.TopK)
	fmt.Fprintf(w, "Tokens:      %d total, %d unique\n", run.TotalTokens, run.UniqueTokens)
	if run.Language != "" {
		fmt.Fprintf(w, "Language:    %s\n", run.Language)
	}
	fmt.Fprintf(w, "Elapsed:     %s\n", run.Elapsed)
	fmt.Fprintln(w)

	entries := make([]mapreduce.Entry, len(words))
	for i, word := range words {
		entries[i] = mapreduce.Entry{Word: word.Word, Count: word.Count}
	}
	if withChart {
		return chart.RenderBars(w, chart.Title(len(entries)), entries, chartWidth)
	}
	return mapreduce.PrintTopKeywords(w, entries)
}

func runIDOrLatest(arg string, database *dbpkg.DB) (int64, error) {
	if arg == "" {
		runs, err := database.ListRuns(1)
		if err != nil {
			return 0, fmt.Errorf("failed to get latest run: %w", err)
		}
		if len(runs) == 0 {
			return 0, fmt.Errorf("no runs found. Run 'wordfreq count --record ...' first")
		}
		return runs[0].RunID, nil
	}

	runID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || runID < 1 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidRunID, arg)
	}
	return runID, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
