package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"mediavault/core/config"
	"mediavault/core/database"
	"mediavault/core/logger"
	"mediavault/core/reconcile"
	"mediavault/core/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the clean command
	cleanDryRun       bool
	cleanCheckMissing bool
	cleanYes          bool
	cleanBuckets      []string
	cleanBindings     []string
)

// cleanCmd removes orphaned bucket objects and optionally reports
// database references to missing objects.
var cleanCmd = &cobra.Command{
	Use:   "clean-orphans",
	Short: "Delete bucket objects no database row references",
	Long: `Scans every bound file-reference column, lists the configured buckets,
and deletes objects nothing in the database references. Optionally also
reports database references to objects missing from the store.

Bindings declare where file references live, one per file-bearing
column, as model:table:id_column:file_column[:bucket].

Examples:
  # Report only, nothing deleted
  mediavault clean-orphans --dry-run \
    --binding upload.PrivateAttachment:upload_privateattachment:id:file:docs

  # Delete orphans with interactive confirmation, also check missing
  mediavault clean-orphans --check-missing \
    --binding upload.PrivateAttachment:upload_privateattachment:id:file:docs

  # Non-interactive deletion
  mediavault clean-orphans --yes --binding ...`,
	RunE: runCleanOrphans,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "Report orphans without deleting anything")
	cleanCmd.Flags().BoolVar(&cleanCheckMissing, "check-missing", false, "Also report database references to missing objects")
	cleanCmd.Flags().BoolVar(&cleanYes, "yes", false, "Auto-confirm deletion (non-interactive)")
	cleanCmd.Flags().StringSliceVar(&cleanBuckets, "bucket", nil, "Restrict to these buckets (default: all declared)")
	cleanCmd.Flags().StringArrayVar(&cleanBindings, "binding", nil, "File-reference binding model:table:id_column:file_column[:bucket] (repeatable)")

	RootCmd.AddCommand(cleanCmd)
}

func runCleanOrphans(cmd *cobra.Command, args []string) error {
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

	bindings, err := reconcile.ParseBindings(cleanBindings)
	if err != nil {
		return err
	}
	if len(bindings) == 0 {
		return fmt.Errorf("at least one --binding is required")
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := storage.NewClient(resolved)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	// Destructive runs need explicit confirmation.
	if !cleanDryRun {
		if !confirmDeletion() {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
	}

	source := reconcile.NewGormSource(db, bindings, resolved.DefaultBucket)
	engine := reconcile.NewEngine(resolved, client, source, l)

	l.Info("Starting orphan cleanup",
		zap.Bool("dry_run", cleanDryRun),
		zap.Bool("check_missing", cleanCheckMissing))

	report, runErr := engine.Run(ctx, reconcile.Options{
		DryRun:       cleanDryRun,
		CheckMissing: cleanCheckMissing,
		Buckets:      cleanBuckets,
	})
	if report != nil {
		printCleanReport(l, report)
	}
	if runErr != nil {
		return fmt.Errorf("orphan cleanup finished with errors: %w", runErr)
	}
	return nil
}

// printCleanReport prints a formatted reconciliation report using logger.
func printCleanReport(l *zap.Logger, report *reconcile.Report) {
	s := report.Summary()

	l.Info("Orphan cleanup report",
		zap.Bool("dry_run", report.DryRun),
		zap.Int("references", s.References),
		zap.Int("listed", s.Listed),
		zap.Int("orphans", s.Orphans),
		zap.Int("deleted", s.Deleted),
		zap.Int("errored", s.Errored),
		zap.Int("missing", s.Missing),
	)

	for _, b := range report.Buckets {
		fields := []zap.Field{
			zap.String("bucket", b.Bucket),
			zap.Int("listed", b.Listed),
			zap.Int("orphans", len(b.Orphans)),
			zap.Int("deleted", b.Deleted),
		}
		if b.Error != "" {
			fields = append(fields, zap.String("error", b.Error))
			l.Error("Bucket failed", fields...)
			continue
		}
		l.Info("Bucket processed", fields...)
	}

	for _, m := range report.Missing {
		l.Warn("Missing object referenced by database",
			zap.String("model", m.Model),
			zap.String("record_id", m.RecordID),
			zap.String("field", m.Field),
			zap.String("bucket", m.Bucket),
			zap.String("key", m.Key),
		)
	}
}

// confirmDeletion prompts the user for confirmation or uses --yes flag.
func confirmDeletion() bool {
	if cleanYes {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm deletion of orphaned objects: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
