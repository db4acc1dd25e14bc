package cmd

import (
	"fmt"
	"os"

	"artifact-store/core/logger"
	"artifact-store/core/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "artifact-store",
	Short: "Artifact Store Service",
	Long: `Artifact Store is a resilient access layer for user-uploaded and generated
artifacts kept in an S3-compatible object storage bucket.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with the debug config gives ISO8601 timestamps for CLI users.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			fields := []zap.Field{zap.Error(err)}
			if code := storage.CodeOf(err); code != storage.CodeInternal {
				fields = append(fields, zap.String("code", string(code)))
			}
			l.Error("command failed", fields...)
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
