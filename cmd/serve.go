package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mediavault/core/config"
	"mediavault/core/logger"
	"mediavault/core/server"
	"mediavault/core/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd starts the HTTP status server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the status server",
	Long: `Starts the HTTP status server exposing store availability and
declared-bucket state. With storage.initialize_buckets_on_start set,
declared buckets are created and their policies applied before the
server begins listening.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Resolve storage configuration; contradictory settings are
		// fatal before anything talks to the store.
		resolved, err := cfg.Storage.Resolve()
		if err != nil {
			logg.Fatal("Invalid storage configuration", zap.Error(err))
		}

		client, err := storage.NewClient(resolved)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}

		// 4. Optional consistency check before serving traffic.
		if resolved.InitializeBucketsOnStart {
			mgr := storage.NewPolicyManager(resolved, client, logg)
			if err := mgr.InitializeBuckets(context.Background()); err != nil {
				logg.Fatal("Bucket initialization failed", zap.Error(err))
			}
			logg.Info("All declared buckets verified")
		}

		prober := storage.NewProber(resolved)
		handler := server.NewHandler(cfg.Server, resolved, client, prober, logg)
		app := handler.App()

		go func() {
			logg.Info("Starting status server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// Graceful shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
