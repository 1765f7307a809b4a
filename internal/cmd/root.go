package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/adamancini/sidecar/internal/output"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	dataDirFlag  string
	verbose      bool
	quiet        bool
)

// Build information, set by Execute.
var (
	sidecarVersion = "dev"
	sidecarCommit  = "none"
	sidecarDate    = "unknown"
)

func Execute(version, commit, date string) error {
	sidecarVersion, sidecarCommit, sidecarDate = version, commit, date

	// Interrupts cancel an in-flight download; the installed file is untouched.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sidecar",
		Short: "Keep a sidecar executable up to date",
		Long: `sidecar installs and updates the yt-dlp executable a host application runs.

It resolves the latest upstream release, downloads the platform executable and
its SHA2-256SUMS manifest, verifies the digest and swaps the file into place
with a single rename.`,
		Version:       sidecarVersion,
		SilenceUsage:  true,
		SilenceErrors: true, // main prints the error once
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Directory holding the executable and version record")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	// Add subcommands
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newPathCmd())
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Register completion function for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(output.AllFormats(), func(f output.Format, _ int) string {
			return string(f)
		}), cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd
}
