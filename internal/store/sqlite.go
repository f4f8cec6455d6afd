package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/radar-coach/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	name         TEXT,
	ring         TEXT,
	quadrant     TEXT,
	blip         TEXT NOT NULL,
	completeness REAL NOT NULL DEFAULT 0,
	quality      REAL NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_submissions_session_id ON submissions(session_id);
CREATE INDEX IF NOT EXISTS idx_submissions_ring ON submissions(ring);
CREATE INDEX IF NOT EXISTS idx_submissions_quadrant ON submissions(quadrant);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSubmission(ctx context.Context, blip *model.BlipSubmission, sessionID string) (*SubmissionRecord, error) {
	rec, blipJSON, err := newRecord(blip, sessionID)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, session_id, name, ring, quadrant, blip, completeness, quality, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, derefOrEmpty(blip.Name), ringOrEmpty(blip), quadrantOrEmpty(blip),
		blipJSON, rec.CompletenessScore, rec.QualityScore, rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert submission")
	}
	return rec, nil
}

func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (*SubmissionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, blip, completeness, quality, created_at FROM submissions WHERE id = ?`,
		id,
	)
	rec, err := scanSubmission(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get submission %s", id)
	}
	return rec, nil
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]SubmissionRecord, error) {
	query := `SELECT id, session_id, blip, completeness, quality, created_at FROM submissions WHERE 1=1`
	var args []any

	if filter.Ring != "" {
		query += ` AND ring = ?`
		args = append(args, filter.Ring)
	}
	if filter.Quadrant != "" {
		query += ` AND quadrant = ?`
		args = append(args, filter.Quadrant)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list submissions")
	}
	defer rows.Close()

	var records []SubmissionRecord
	for rows.Next() {
		rec, err := scanSubmission(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan submission")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list submissions iterate")
}
