package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dealgrid/meddpicc/internal/model"
)

// Postgres is a pgxpool-backed Store. The assessment document lives in a
// JSONB column with the id, opportunity id, and version lifted out for
// indexing; the configuration record is a single JSONB row.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS assessments (
	id             UUID PRIMARY KEY,
	opportunity_id TEXT NOT NULL UNIQUE,
	version        INT NOT NULL,
	doc            JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS configuration (
	id  INT PRIMARY KEY CHECK (id = 1),
	doc JSONB NOT NULL
);
`

// NewPostgres connects a pool to dsn, verifies connectivity, and
// initializes the schema.
func NewPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse pool DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping pool: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: init schema: %w", err)
	}
	return &Postgres{pool: pool, logger: logger}, nil
}

func (p *Postgres) Get(ctx context.Context, id uuid.UUID) (model.Assessment, error) {
	return p.getOne(ctx, `SELECT doc FROM assessments WHERE id = $1`, id)
}

func (p *Postgres) GetByOpportunity(ctx context.Context, opportunityID string) (model.Assessment, error) {
	return p.getOne(ctx, `SELECT doc FROM assessments WHERE opportunity_id = $1`, opportunityID)
}

func (p *Postgres) getOne(ctx context.Context, query string, arg any) (model.Assessment, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx, query, arg).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Assessment{}, ErrNotFound
	}
	if err != nil {
		return model.Assessment{}, fmt.Errorf("storage: get assessment: %w", err)
	}
	var a model.Assessment
	if err := json.Unmarshal(doc, &a); err != nil {
		return model.Assessment{}, fmt.Errorf("storage: decode assessment: %w", err)
	}
	return a, nil
}

func (p *Postgres) Put(ctx context.Context, a model.Assessment) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("storage: encode assessment: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO assessments (id, opportunity_id, version, doc)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			opportunity_id = EXCLUDED.opportunity_id,
			version        = EXCLUDED.version,
			doc            = EXCLUDED.doc`,
		a.ID, a.OpportunityID, a.Version, doc,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("storage: put assessment: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]model.Assessment, error) {
	rows, err := p.pool.Query(ctx, `SELECT doc FROM assessments`)
	if err != nil {
		return nil, fmt.Errorf("storage: list assessments: %w", err)
	}
	defer rows.Close()

	var out []model.Assessment
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("storage: list assessments: scan: %w", err)
		}
		var a model.Assessment
		if err := json.Unmarshal(doc, &a); err != nil {
			return nil, fmt.Errorf("storage: decode assessment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list assessments: rows: %w", err)
	}
	return out, nil
}

func (p *Postgres) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM assessments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("storage: delete assessment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) GetConfiguration(ctx context.Context) (model.Configuration, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx, `SELECT doc FROM configuration WHERE id = 1`).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Configuration{}, ErrNotFound
	}
	if err != nil {
		return model.Configuration{}, fmt.Errorf("storage: get configuration: %w", err)
	}
	var cfg model.Configuration
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return model.Configuration{}, fmt.Errorf("storage: decode configuration: %w", err)
	}
	return cfg, nil
}

func (p *Postgres) PutConfiguration(ctx context.Context, cfg model.Configuration) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("storage: encode configuration: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO configuration (id, doc) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		doc,
	)
	if err != nil {
		return fmt.Errorf("storage: put configuration: %w", err)
	}
	return nil
}

func (p *Postgres) Close(context.Context) error {
	p.pool.Close()
	return nil
}
