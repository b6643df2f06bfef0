package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/landrank/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// connPragmas apply to every pooled connection, so they ride on the DSN.
var connPragmas = []string{
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
}

// sqliteDSN appends connPragmas to dsn as _pragma query parameters.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(dsn)
	for _, p := range connPragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", sqliteDSN(dsn))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// journal_mode is stored in the database file.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "sqlite: enable WAL")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id                    TEXT PRIMARY KEY,
	source                TEXT NOT NULL,
	content_hash          TEXT NOT NULL,
	weights               TEXT NOT NULL,
	normalized_weights    TEXT NOT NULL,
	only_available        INTEGER NOT NULL,
	parcel_count          INTEGER NOT NULL,
	dropped_invalid_dates INTEGER NOT NULL DEFAULT 0,
	summary               TEXT NOT NULL,
	created_at            DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS ranked_parcels (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	rank       INTEGER NOT NULL,
	parcel_id  TEXT NOT NULL,
	zone       TEXT NOT NULL DEFAULT '',
	score      REAL NOT NULL,
	energy_kwh REAL NOT NULL,
	households REAL NOT NULL,
	co2_tons   REAL NOT NULL,
	PRIMARY KEY (run_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_content_hash ON runs(content_hash);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	prepareRun(run)

	cols, err := encodeRun(run)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode run")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, content_hash, weights, normalized_weights, only_available,
			parcel_count, dropped_invalid_dates, summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.ContentHash, string(cols.weights), string(cols.normalized),
		run.OnlyAvailable, run.ParcelCount, run.DroppedInvalidDates, string(cols.summary), run.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ranked_parcels (run_id, rank, parcel_id, zone, score, energy_kwh, households, co2_tons)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare ranked parcel insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, p := range run.Top {
		if _, err := stmt.ExecContext(ctx, run.ID, p.Rank, p.ID, p.Zone, p.Score, p.EnergyKWh, p.Households, p.CO2Tons); err != nil {
			return eris.Wrapf(err, "sqlite: insert ranked parcel %d", p.Rank)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit run")
}

const runColumns = `id, source, content_hash, weights, normalized_weights, only_available,
	parcel_count, dropped_invalid_dates, summary, created_at`

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, parcel_id, zone, score, energy_kwh, households, co2_tons
		 FROM ranked_parcels WHERE run_id = ? ORDER BY rank`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query ranked parcels for %s", id)
	}
	defer rows.Close() //nolint:errcheck

	run.Top = []model.RankedParcel{}
	for rows.Next() {
		var p model.RankedParcel
		if err := rows.Scan(&p.Rank, &p.ID, &p.Zone, &p.Score, &p.EnergyKWh, &p.Households, &p.CO2Tons); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ranked parcel")
		}
		run.Top = append(run.Top, p)
	}
	return run, eris.Wrap(rows.Err(), "sqlite: ranked parcels iterate")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	runs := []model.Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var weights, normalized, summary string

	err := row.Scan(&r.ID, &r.Source, &r.ContentHash, &weights, &normalized, &r.OnlyAvailable,
		&r.ParcelCount, &r.DroppedInvalidDates, &summary, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := decodeRun(&r, []byte(weights), []byte(normalized), []byte(summary)); err != nil {
		return nil, eris.Wrap(err, "sqlite: decode run")
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

// prepareRun fills the generated fields of a new run.
func prepareRun(run *model.Run) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}

type encodedRun struct {
	weights    []byte
	normalized []byte
	summary    []byte
}

func encodeRun(run *model.Run) (encodedRun, error) {
	var (
		out encodedRun
		err error
	)
	if out.weights, err = json.Marshal(orEmpty(run.Weights)); err != nil {
		return out, err
	}
	if out.normalized, err = json.Marshal(orEmpty(run.NormalizedWeights)); err != nil {
		return out, err
	}
	if out.summary, err = json.Marshal(run.Summary); err != nil {
		return out, err
	}
	return out, nil
}

func decodeRun(r *model.Run, weights, normalized, summary []byte) error {
	if err := json.Unmarshal(weights, &r.Weights); err != nil {
		return eris.Wrap(err, "unmarshal weights")
	}
	if err := json.Unmarshal(normalized, &r.NormalizedWeights); err != nil {
		return eris.Wrap(err, "unmarshal normalized weights")
	}
	if err := json.Unmarshal(summary, &r.Summary); err != nil {
		return eris.Wrap(err, "unmarshal summary")
	}
	return nil
}

func orEmpty(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
