package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/dtnitsch/wordfreq/internal/count"
	"github.com/dtnitsch/wordfreq/internal/runs"
	"github.com/dtnitsch/wordfreq/pkg/chart"
	"github.com/dtnitsch/wordfreq/pkg/help"
	"github.com/dtnitsch/wordfreq/pkg/mapreduce"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(exitCode(err))
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "wordfreq",
		Usage: "Count the most frequent words of a text with a parallel map-reduce",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors", EnvVars: []string{"WORDFREQ_QUIET"}},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log per-worker progress", EnvVars: []string{"WORDFREQ_VERBOSE"}},
		},
		Commands: []*cli.Command{
			{
				Name:   "count",
				Usage:  "Count words from a URL, file, inline text or stdin",
				Action: count.CountAction,
				Flags:  count.Flags(),
			},
			{
				Name:   "runs",
				Usage:  "List recorded runs, newest first",
				Action: runs.RunsAction,
				Flags: []cli.Flag{
					count.DBFlag(),
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "maximum number of runs to list (0 for all)"},
				},
			},
			{
				Name:      "run",
				Usage:     "Show the ranked words of a recorded run",
				ArgsUsage: "[run-id]",
				Action:    runs.RunAction,
				Flags: []cli.Flag{
					count.DBFlag(),
					&cli.BoolFlag{Name: "chart", Usage: "render a bar chart"},
					&cli.IntFlag{Name: "chart-width", Value: chart.DefaultWidth, Usage: "cells of the longest bar"},
				},
			},
			{
				Name:  "quickstart",
				Usage: "Print usage examples",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}
}

// exitCode is 1 for bad usage or configuration and 2 for anything that
// failed while running.
func exitCode(err error) int {
	if errors.Is(err, runs.ErrInvalidRunID) || errors.Is(err, mapreduce.ErrInvalidConfig) {
		return 1
	}
	return 2
}
