package count

import (
	"github.com/dtnitsch/wordfreq/pkg/analytics"
	"github.com/dtnitsch/wordfreq/pkg/db"
	"github.com/dtnitsch/wordfreq/pkg/mapreduce"
)

// Source identifies where the counted text comes from.
type Source struct {
	Kind     string // url, file, text, stdin (see db.Source*)
	Location string
}

// Label is what reports and the run store show for the source. Inline
// text is not repeated there.
func (s Source) Label() string {
	switch s.Kind {
	case db.SourceText:
		return "(inline text)"
	case db.SourceStdin:
		return "-"
	}
	return s.Location
}

// Loaded is the plain text produced for a Source.
type Loaded struct {
	Text        string
	Title       string
	ContentType string
	FromCache   bool
}

// SourceInfo describes the input in a report.
type SourceInfo struct {
	Kind        string `json:"kind" yaml:"kind"`
	Location    string `json:"location" yaml:"location"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	FromCache   bool   `json:"from_cache,omitempty" yaml:"from_cache,omitempty"`
	ContentHash string `json:"content_hash" yaml:"content_hash"`
}

// Stats provides summary statistics for the run.
type Stats struct {
	analytics.Summary `yaml:",inline"`

	Workers          int     `json:"workers" yaml:"workers"`
	Chunks           int     `json:"chunks" yaml:"chunks"`
	TotalTimeSeconds float64 `json:"total_time_seconds" yaml:"total_time_seconds"`
	RunID            int64   `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	PreviousRunID    int64   `json:"previous_run_id,omitempty" yaml:"previous_run_id,omitempty"`
}

// Report is the structured output of one count run.
type Report struct {
	Status string            `json:"status" yaml:"status"`
	Source SourceInfo        `json:"source" yaml:"source"`
	Stats  Stats             `json:"stats" yaml:"stats"`
	Top    []mapreduce.Entry `json:"top" yaml:"top"`
}
