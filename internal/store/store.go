// Package store persists scoring runs and their top-ranked parcels.
package store

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/landrank/internal/config"
	"github.com/sells-group/landrank/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("store: run not found")

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 20

// Store defines the persistence interface for scoring runs.
type Store interface {
	// SaveRun inserts the run and its top parcels. An empty ID is filled
	// with a new UUID and a zero CreatedAt with the current time.
	SaveRun(ctx context.Context, run *model.Run) error
	// GetRun returns one run with its top parcels, or ErrNotFound.
	GetRun(ctx context.Context, id string) (*model.Run, error)
	// ListRuns returns the most recent runs without their parcels.
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open opens the store named by cfg.Driver and runs its migration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		st, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
