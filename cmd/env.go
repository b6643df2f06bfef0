package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/landrank/internal/config"
	"github.com/sells-group/landrank/internal/fetcher"
	"github.com/sells-group/landrank/internal/model"
	"github.com/sells-group/landrank/internal/store"
)

// initStore opens the run log named by the config and migrates it.
func initStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, eris.New("store.database_url is required (LANDRANK_STORE_DATABASE_URL)")
	}
	return store.Open(ctx, cfg.Store)
}

// resolveInput returns the --input flag, falling back to dataset.path.
func resolveInput(cmd *cobra.Command) (string, error) {
	input, _ := cmd.Flags().GetString("input")
	if input == "" {
		input = cfg.Dataset.Path
	}
	if input == "" {
		return "", eris.New("no dataset: pass --input or set dataset.path (LANDRANK_DATASET_PATH)")
	}
	return input, nil
}

func loadOptions(c *config.Config) fetcher.LoadOptions {
	return fetcher.LoadOptions{
		Sheet:   c.Dataset.Sheet,
		TempDir: c.Dataset.TempDir,
		Router:  fetcher.NewRouter(c.Fetch),
	}
}

// newDatasetCache builds the memoizing loader used by the server.
func newDatasetCache(c *config.Config) *fetcher.DatasetCache {
	opts := loadOptions(c)
	ttl := time.Duration(c.Dataset.CacheTTLMins) * time.Minute
	return fetcher.NewDatasetCache(c.Dataset.CacheEntries, ttl, func(ctx context.Context, src string) (*model.Dataset, error) {
		return fetcher.LoadDataset(ctx, src, opts)
	})
}
