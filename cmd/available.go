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

// availableCmd checks whether the configured object store responds.
var availableCmd = &cobra.Command{
	Use:   "available",
	Short: "Check if the configured object store is available",
	Long: `Probes the object store's HTTP endpoint. A 403 response counts as
available (the server answered, it is simply guarding the resource).
Exits non-zero with a reason when the store cannot be reached.`,
	RunE: runAvailable,
}

func init() {
	RootCmd.AddCommand(availableCmd)
}

func runAvailable(cmd *cobra.Command, args []string) error {
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

	prober := storage.NewProber(resolved)
	l.Info("Checking storage availability", zap.String("endpoint", prober.BaseURL()))

	status := prober.Probe(ctx)
	if !status.Available {
		return fmt.Errorf("storage is NOT available at %s\nreason: %s", prober.BaseURL(), status.Details())
	}

	l.Info("Storage is available",
		zap.String("endpoint", prober.BaseURL()),
		zap.Int("status_code", status.StatusCode))
	return nil
}
