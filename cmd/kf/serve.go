package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flags/internal/config"
	"github.com/alfredjeanlab/flags/internal/server"
	flagsync "github.com/alfredjeanlab/flags/internal/sync"
)

// syncDestinations builds the snapshot destinations named in cfg.
// Destinations that fail to initialize are logged and skipped.
func syncDestinations(ctx context.Context, cfg *config.Config, logger *slog.Logger) []flagsync.Destination {
	var dests []flagsync.Destination
	if cfg.SyncS3Bucket != "" {
		s3Dest, err := flagsync.NewS3Destination(ctx,
			cfg.SyncS3Bucket,
			cfg.SyncS3Key,
			cfg.SyncS3Region,
			cfg.SyncS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}
	if cfg.SyncFile != "" {
		dests = append(dests, flagsync.NewFileDestination(cfg.SyncFile))
		logger.Info("sync file destination enabled", "path", cfg.SyncFile)
	}
	return dests
}

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the flag HTTP and gRPC servers",
	GroupID: "system",
	Args:    cobra.NoArgs,
	// Override PersistentPreRunE so we don't create a client connection.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := cfg.Logger(os.Stderr)
		slog.SetDefault(logger)

		st, err := buildStack(cmd.Context(), cfg, logger, "kf-serve")
		if err != nil {
			return err
		}

		flagServer := server.NewFlagServer(st.service, logger)
		grpcServer := flagServer.NewGRPCServer(cfg.AuthToken)
		if cfg.AuthToken == "" {
			logger.Warn("authentication disabled (FLAGS_AUTH_TOKEN not set)")
		}

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			st.Close()
			return err
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           flagServer.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		var scheduler *flagsync.Scheduler
		if cfg.SyncInterval > 0 {
			if dests := syncDestinations(cmd.Context(), cfg, logger); len(dests) > 0 {
				scheduler = flagsync.NewScheduler(flagsync.SourceFunc(st.registry.Records), dests, cfg.SyncInterval, logger)
				scheduler.Start()
				logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
			}
		}

		logger.Info("flag server started",
			"store", cfg.Store,
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"cache_ttl", cfg.CacheTTL,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		flagServer.Shutdown()
		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
