package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Source kinds.
const (
	SourceURL   = "url"
	SourceFile  = "file"
	SourceText  = "text"
	SourceStdin = "stdin"
)

// Run is one recorded counting run.
type Run struct {
	RunID        int64
	SourceKind   string
	Location     string
	ContentHash  string
	Workers      int
	TopK         int
	TotalTokens  int
	UniqueTokens int
	Language     string
	Elapsed      time.Duration
	CreatedAt    time.Time
}

// RankedWord is one row of a run's top-K.
type RankedWord struct {
	Rank  int
	Word  string
	Count int
}

// execQuerier is satisfied by both *DB and *sql.Tx.
type execQuerier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// InsertSource returns the source_id for (kind, location), creating it if needed.
func (db *DB) InsertSource(kind, location string) (int64, error) {
	return insertSource(db, kind, location)
}

func insertSource(q execQuerier, kind, location string) (int64, error) {
	// Check if source already exists
	var existingID int64
	err := q.QueryRow("SELECT source_id FROM sources WHERE kind = ? AND location = ?", kind, location).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing source: %w", err)
	}

	var domain sql.NullString
	if kind == SourceURL {
		if parsed, perr := url.Parse(location); perr == nil && parsed.Host != "" {
			domain = NewNullString(parsed.Host)
		}
	}

	result, err := q.Exec(`
		INSERT INTO sources (kind, location, domain)
		VALUES (?, ?, ?)
	`, kind, location, domain)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source: %w", err)
	}

	sourceID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get source ID: %w", err)
	}
	return sourceID, nil
}

// RecordRun stores the source, the run and its ranked words in one
// transaction and returns the new run_id. Nothing is written on failure.
func (db *DB) RecordRun(run Run, words []RankedWord) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after Commit

	sourceID, err := insertSource(tx, run.SourceKind, run.Location)
	if err != nil {
		return 0, err
	}

	result, err := tx.Exec(`
		INSERT INTO runs (source_id, content_hash, workers, top_k, total_tokens, unique_tokens, language, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sourceID, run.ContentHash, run.Workers, run.TopK, run.TotalTokens, run.UniqueTokens,
		NewNullString(run.Language), run.Elapsed.Milliseconds())
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	// Insert ranked words
	stmt, err := tx.Prepare("INSERT INTO run_words (run_id, rank, word, count) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare run word insert: %w", err)
	}
	defer stmt.Close()

	for _, w := range words {
		if _, err := stmt.Exec(runID, w.Rank, w.Word, w.Count); err != nil {
			return 0, fmt.Errorf("failed to insert run word %q: %w", w.Word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

const runColumns = `
	r.run_id, s.kind, s.location, r.content_hash, r.workers, r.top_k,
	r.total_tokens, r.unique_tokens, r.language, r.elapsed_ms, r.created_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var language sql.NullString
	var elapsedMS sql.NullInt64
	if err := row.Scan(&r.RunID, &r.SourceKind, &r.Location, &r.ContentHash, &r.Workers, &r.TopK,
		&r.TotalTokens, &r.UniqueTokens, &language, &elapsedMS, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Language = language.String
	r.Elapsed = time.Duration(elapsedMS.Int64) * time.Millisecond
	return &r, nil
}

// GetRun returns a single run.
func (db *DB) GetRun(runID int64) (*Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+`
		FROM runs r JOIN sources s ON s.source_id = r.source_id
		WHERE r.run_id = ?`, runID)
	run, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns runs, newest first. limit <= 0 returns all of them.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + `
		FROM runs r JOIN sources s ON s.source_id = r.source_id
		ORDER BY r.run_id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRunWords returns the ranked words of a run in rank order.
func (db *DB) GetRunWords(runID int64) ([]RankedWord, error) {
	rows, err := db.Query(`
		SELECT rank, word, count FROM run_words
		WHERE run_id = ?
		ORDER BY rank
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run words: %w", err)
	}
	defer rows.Close()

	var words []RankedWord
	for rows.Next() {
		var w RankedWord
		if err := rows.Scan(&w.Rank, &w.Word, &w.Count); err != nil {
			return nil, fmt.Errorf("failed to scan run word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// FindRunByHash returns the newest run over identical content with the same
// settings, or nil when there is none.
func (db *DB) FindRunByHash(contentHash string, workers, topK int) (*Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+`
		FROM runs r JOIN sources s ON s.source_id = r.source_id
		WHERE r.content_hash = ? AND r.workers = ? AND r.top_k = ?
		ORDER BY r.run_id DESC LIMIT 1`, contentHash, workers, topK)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find run by hash: %w", err)
	}
	return run, nil
}

// NewNullString maps "" to NULL.
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
