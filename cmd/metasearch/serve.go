// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/metasearch/internal/logger"
	"github.com/pdiddy/metasearch/internal/metrics"
	"github.com/pdiddy/metasearch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a search session as a local JSON API",
	Long: `Serve opens one broker session and exposes it over HTTP for a browser
front-end: searching, filters, sorting, paging, the clipboard, the search
history and export. Prometheus metrics are served on /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:9005", "listen address")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "grace period for in-flight requests")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	grace, _ := cmd.Flags().GetDuration("shutdown-timeout")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	metrics.Register()

	st, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := newSession(st)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Init(ctx); err != nil && !sess.OnError(ctx, err) {
		log.Warn("broker not reachable, will retry", zap.Error(err))
	}

	items, err := st.clipboard.Items(ctx)
	if err != nil {
		return err
	}
	sess.SetClipboard(items)

	api := server.New(sess, st.clipboard, st.history, newConverter(), log)
	defer api.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", addr), zap.String("broker", cfg.Broker.URL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
	}
	log.Info("Server stopped gracefully")
	return nil
}
