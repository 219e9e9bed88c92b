package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/fwconfig/internal/api"
	"github.com/gyaneshwarpardhi/fwconfig/internal/config"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assembled process over HTTP and reassemble on fragment changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	return cmd
}

func runServe(opts *options, addr string) error {
	eng, err := opts.engine()
	if err != nil {
		return err
	}
	loader, err := opts.loader()
	if err != nil {
		slog.Error("failed to load fragments", "path", opts.fragments, "err", err)
		return err
	}

	// ── Initial process ──────────────────────────────────────────────────────
	b := &config.Bundle{}
	if loader != nil {
		b = loader.Bundle()
	}
	if _, err := eng.Rebuild(b); err != nil {
		return err
	}

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	if loader != nil {
		loader.OnChange(func(b *config.Bundle) {
			if _, err := eng.Rebuild(b); err != nil {
				slog.Warn("hot-reload skipped: assembly failed", "err", err)
			}
		})
		stopWatch, err := loader.Watch()
		if err != nil {
			slog.Warn("fragment watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.New(eng, loader),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case err := <-serveErr:
		if err != nil {
			slog.Error("server error", "err", err)
			return err
		}
		return nil
	case <-quit:
	}
	slog.Info("shutting down…")

	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return err
	}
	slog.Info("goodbye")
	return nil
}
