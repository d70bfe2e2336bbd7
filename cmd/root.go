package cmd

import (
	"fmt"
	"os"

	"mediavault/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "mediavault",
	Short: "S3-compatible file-attachment storage backend",
	Long: `Mediavault persists model file attachments into an S3-compatible
object store. It manages bucket lifecycle and policies, generates
direct and pre-signed access URLs, and reconciles database file
references against actual bucket contents.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format at debug level gives ISO8601 timestamps,
		// which is what a CLI user expects to read.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
