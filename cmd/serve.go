package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/landrank/internal/server"
	"github.com/sells-group/landrank/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		input, err := resolveInput(cmd)
		if err != nil {
			return err
		}

		cache := newDatasetCache(cfg)

		// Fail fast on a bad source instead of on the first request.
		if _, err := cache.Get(ctx, input); err != nil {
			return eris.Wrap(err, "serve: load dataset")
		}

		var st store.Store
		noStore, _ := cmd.Flags().GetBool("no-store")
		if !noStore && cfg.Store.DatabaseURL != "" {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           server.New(cfg, input, cache, st).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("input", input),
			zap.Bool("run_log", st != nil),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "server port (default from config)")
	serveCmd.Flags().String("input", "", "parcel table to serve (default from config)")
	serveCmd.Flags().Bool("no-store", false, "disable the run log endpoints")
	rootCmd.AddCommand(serveCmd)
}
