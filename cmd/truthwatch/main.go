// Package main is the truthwatch CLI: flag parsing and dispatch to the
// core packages. It contains no detection logic of its own, only wiring
// and the exit-code table.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit codes, per the invocation contract.
const (
	exitSuccess    = 0
	exitFindings   = 20
	exitIncomplete = 30
	exitFailed     = 1
	exitUsageError = 64
)

var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:   "truthwatch",
	Short: "Silent-failure detector for interactive web applications",
}

func init() {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	var err error
	logger, err = cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize operator logger: %v\n", err)
		os.Exit(exitFailed)
	}
	rootCmd.AddCommand(newRunCmd())
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		if ee, ok := err.(*exitError); ok {
			os.Exit(ee.code)
		}
		os.Exit(exitUsageError)
	}
}
