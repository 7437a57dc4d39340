// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf2md/pkg/types"
)

const defaultLimit = 20

// Entry is an indexed run record together with its outcome.
type Entry struct {
	types.RunRecord `yaml:",inline"`

	ID             int64                  `json:"id" yaml:"id"`
	Status         types.ConversionStatus `json:"status" yaml:"status"`
	ArchiveMembers int                    `json:"archive_members" yaml:"archive_members"`
	Error          string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

// Index stores run records in a SQLite database.
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the run index at path.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening run index: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run index schema: %w", err)
	}
	return idx, nil
}

// Close releases the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) createSchema() error {
	_, err := x.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		source_file TEXT NOT NULL,
		output_path TEXT,
		params TEXT,
		status TEXT NOT NULL,
		archive_members INTEGER,
		error TEXT
	)`)
	if err != nil {
		return err
	}
	_, err = x.db.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source_file)`)
	return err
}

// Record inserts e and returns its row ID. Params are stored as YAML.
func (x *Index) Record(ctx context.Context, e Entry) (int64, error) {
	params, err := yaml.Marshal(e.Params)
	if err != nil {
		return 0, fmt.Errorf("marshaling params: %w", err)
	}

	res, err := x.db.ExecContext(ctx,
		`INSERT INTO runs (timestamp, source_file, output_path, params, status, archive_members, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.SourceFile,
		e.OutputPath,
		string(params),
		string(e.Status),
		e.ArchiveMembers,
		e.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first. A source filter
// restricts results to runs of that file name.
func (x *Index) Recent(ctx context.Context, source string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `SELECT id, timestamp, source_file, output_path, params, status, archive_members, error FROM runs`
	var args []any
	if source != "" {
		query += ` WHERE source_file = ?`
		args = append(args, source)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                  Entry
			ts, params, status string
			output, errText    sql.NullString
			members            sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &ts, &e.SourceFile, &output, &params, &status, &members, &errText); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		e.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing run timestamp %q: %w", ts, err)
		}
		if err := yaml.Unmarshal([]byte(params), &e.Params); err != nil {
			return nil, fmt.Errorf("parsing run params: %w", err)
		}
		e.OutputPath = output.String
		e.Status = types.ConversionStatus(status)
		e.ArchiveMembers = int(members.Int64)
		e.Error = errText.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
