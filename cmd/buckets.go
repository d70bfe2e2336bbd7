package cmd

import (
	"context"
	"fmt"

	"mediavault/core/config"
	"mediavault/core/logger"
	"mediavault/core/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// bucketsCmd initializes declared buckets: creation, public-read
// policies and policy hooks.
var bucketsCmd = &cobra.Command{
	Use:   "initialize-buckets",
	Short: "Create declared buckets and apply their policies",
	Long: `Creates every bucket declared private or public if it does not exist,
applies the public-read policy to public buckets, and applies any
configured policy hooks. Failures on one bucket do not stop the rest;
the command exits non-zero listing every bucket that failed.`,
	RunE: runInitializeBuckets,
}

func init() {
	RootCmd.AddCommand(bucketsCmd)
}

func runInitializeBuckets(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	resolved, err := cfg.Storage.Resolve()
	if err != nil {
		return fmt.Errorf("invalid storage configuration: %w", err)
	}

	client, err := storage.NewClient(resolved)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}

	l.Info("Initializing buckets", zap.Strings("buckets", resolved.Buckets()))

	mgr := storage.NewPolicyManager(resolved, client, l)
	if err := mgr.InitializeBuckets(ctx); err != nil {
		return fmt.Errorf("bucket initialization failed: %w", err)
	}

	l.Info("All buckets have been verified")
	return nil
}
