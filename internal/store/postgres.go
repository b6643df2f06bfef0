package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/landrank/internal/db"
	"github.com/sells-group/landrank/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id                    TEXT PRIMARY KEY,
	source                TEXT NOT NULL,
	content_hash          TEXT NOT NULL,
	weights               JSONB NOT NULL,
	normalized_weights    JSONB NOT NULL,
	only_available        BOOLEAN NOT NULL,
	parcel_count          INTEGER NOT NULL,
	dropped_invalid_dates INTEGER NOT NULL DEFAULT 0,
	summary               JSONB NOT NULL,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ranked_parcels (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	rank       INTEGER NOT NULL,
	parcel_id  TEXT NOT NULL,
	zone       TEXT NOT NULL DEFAULT '',
	score      DOUBLE PRECISION NOT NULL,
	energy_kwh DOUBLE PRECISION NOT NULL,
	households DOUBLE PRECISION NOT NULL,
	co2_tons   DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_content_hash ON runs(content_hash);
`

// rankedParcelColumns is the COPY column order for ranked_parcels.
var rankedParcelColumns = []string{
	"run_id", "rank", "parcel_id", "zone", "score", "energy_kwh", "households", "co2_tons",
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	prepareRun(run)

	cols, err := encodeRun(run)
	if err != nil {
		return eris.Wrap(err, "postgres: encode run")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, source, content_hash, weights, normalized_weights, only_available,
			parcel_count, dropped_invalid_dates, summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.Source, run.ContentHash, cols.weights, cols.normalized,
		run.OnlyAvailable, run.ParcelCount, run.DroppedInvalidDates, cols.summary, run.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert run %s", run.ID)
	}

	rows := make([][]any, len(run.Top))
	for i, p := range run.Top {
		rows[i] = []any{run.ID, p.Rank, p.ID, p.Zone, p.Score, p.EnergyKWh, p.Households, p.CO2Tons}
	}
	if _, err := db.CopyFrom(ctx, tx, "ranked_parcels", rankedParcelColumns, rows); err != nil {
		return eris.Wrap(err, "postgres: copy ranked parcels")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit run")
}

const pgRunColumns = `id, source, content_hash, weights, normalized_weights, only_available,
	parcel_count, dropped_invalid_dates, summary, created_at`

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	run, err := scanPGRun(s.pool.QueryRow(ctx, `SELECT `+pgRunColumns+` FROM runs WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT rank, parcel_id, zone, score, energy_kwh, households, co2_tons
		 FROM ranked_parcels WHERE run_id = $1 ORDER BY rank`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query ranked parcels for %s", id)
	}
	defer rows.Close()

	run.Top = []model.RankedParcel{}
	for rows.Next() {
		var p model.RankedParcel
		if err := rows.Scan(&p.Rank, &p.ID, &p.Zone, &p.Score, &p.EnergyKWh, &p.Households, &p.CO2Tons); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ranked parcel")
		}
		run.Top = append(run.Top, p)
	}
	return run, eris.Wrap(rows.Err(), "postgres: ranked parcels iterate")
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgRunColumns+` FROM runs ORDER BY created_at DESC, id LIMIT $1`, normalizeLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	runs := []model.Run{}
	for rows.Next() {
		r, err := scanPGRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanPGRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var weights, normalized, summary []byte

	err := row.Scan(&r.ID, &r.Source, &r.ContentHash, &weights, &normalized, &r.OnlyAvailable,
		&r.ParcelCount, &r.DroppedInvalidDates, &summary, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}

	if err := decodeRun(&r, weights, normalized, summary); err != nil {
		return nil, eris.Wrap(err, "postgres: decode run")
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}
