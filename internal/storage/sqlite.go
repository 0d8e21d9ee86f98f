package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dealgrid/meddpicc/internal/model"
)

// SQLite is a single-file embedded Store. Records are stored as JSON
// documents; the opportunity index is a unique column so the
// one-assessment-per-opportunity rule is enforced by the schema.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS assessments (
	id             TEXT PRIMARY KEY,
	opportunity_id TEXT NOT NULL UNIQUE,
	version        INTEGER NOT NULL,
	doc            TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS configuration (
	id  INTEGER PRIMARY KEY CHECK (id = 1),
	doc TEXT NOT NULL
);
`

// NewSQLite opens (or creates) the database at path and initializes the
// schema. Use ":memory:" for an ephemeral database.
func NewSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	// modernc.org/sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: init sqlite schema: %w", err)
	}
	return &SQLite{db: db, logger: logger}, nil
}

func (s *SQLite) Get(ctx context.Context, id uuid.UUID) (model.Assessment, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM assessments WHERE id = ?`, id.String()).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Assessment{}, ErrNotFound
	}
	if err != nil {
		return model.Assessment{}, fmt.Errorf("storage: get assessment: %w", err)
	}
	return decodeAssessment(doc)
}

func (s *SQLite) GetByOpportunity(ctx context.Context, opportunityID string) (model.Assessment, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM assessments WHERE opportunity_id = ?`, opportunityID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Assessment{}, ErrNotFound
	}
	if err != nil {
		return model.Assessment{}, fmt.Errorf("storage: get assessment by opportunity: %w", err)
	}
	return decodeAssessment(doc)
}

func (s *SQLite) Put(ctx context.Context, a model.Assessment) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("storage: encode assessment: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (id, opportunity_id, version, doc)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			opportunity_id = excluded.opportunity_id,
			version        = excluded.version,
			doc            = excluded.doc`,
		a.ID.String(), a.OpportunityID, a.Version, string(doc),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrConflict
		}
		return fmt.Errorf("storage: put assessment: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]model.Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM assessments`)
	if err != nil {
		return nil, fmt.Errorf("storage: list assessments: %w", err)
	}
	defer rows.Close()

	var out []model.Assessment
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("storage: list assessments: scan: %w", err)
		}
		a, err := decodeAssessment(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list assessments: rows: %w", err)
	}
	return out, nil
}

func (s *SQLite) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assessments WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("storage: delete assessment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: delete assessment: rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) GetConfiguration(ctx context.Context) (model.Configuration, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM configuration WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Configuration{}, ErrNotFound
	}
	if err != nil {
		return model.Configuration{}, fmt.Errorf("storage: get configuration: %w", err)
	}
	var cfg model.Configuration
	if err := json.Unmarshal([]byte(doc), &cfg); err != nil {
		return model.Configuration{}, fmt.Errorf("storage: decode configuration: %w", err)
	}
	return cfg, nil
}

func (s *SQLite) PutConfiguration(ctx context.Context, cfg model.Configuration) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("storage: encode configuration: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO configuration (id, doc) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET doc = excluded.doc`,
		string(doc),
	)
	if err != nil {
		return fmt.Errorf("storage: put configuration: %w", err)
	}
	return nil
}

func (s *SQLite) Close(context.Context) error {
	return s.db.Close()
}

func decodeAssessment(doc string) (model.Assessment, error) {
	var a model.Assessment
	if err := json.Unmarshal([]byte(doc), &a); err != nil {
		return model.Assessment{}, fmt.Errorf("storage: decode assessment: %w", err)
	}
	return a, nil
}
