// Package cmd implements the bytehot CLI: serve (run the full pipeline
// against configured watch roots), watch (stand-alone dispatcher), events
// (inspect a persisted event log), replay (step through a snapshot and
// generate reproduction tests), and version.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
)

// rootCmd represents the base command for the bytehot application.
var rootCmd = &cobra.Command{
	Use:   "bytehot",
	Short: "Runtime class-redefinition agent",
	Long: `bytehot watches directories of class artifacts, validates changed
bytecode against the platform's redefinition rules, submits eligible changes
to the instrumentation port, and reconciles live instances afterwards —
recording every step in an auditable event log.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from the main
// package to inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "bytehot version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
