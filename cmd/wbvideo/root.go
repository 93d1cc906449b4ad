package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"wbvideo/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	notifications bool
	quiet         bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wbvideo",
	Short: "Download every video a Weibo user has posted",
	Long: `wbvideo walks the video feed of a Weibo profile, records every video URL
it finds, and downloads the videos one by one.

Features:
  - Cursor-based pagination with retries on transient failures
  - Resumable runs: files already on disk are skipped
  - Clean interrupt handling: a half-written video never survives Ctrl+C
  - Session cookies stored in the system keychain or an encrypted file
  - Optional desktop notification when a run ends`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}
		if cmd.Name() != "version" && cmd.Name() != "help" {
			ui.PrintLogo()
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree and exits with status 1 on error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.wbvideo.yaml or ~/.config/wbvideo/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "notify when the run ends")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`wbvideo {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
