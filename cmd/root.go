package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global output flags only
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "bootimg",
	Short: "Manipulate Android Boot Images",
	Long: `bootimg reads, modifies and creates Android Boot Images: the page-aligned
container holding a kernel, ramdisk and optional second stage, recovery DTBO
and DTB partitions behind an ANDROID! header (versions 0 to 2).

Commands:
  info        Print boot image information
  extract     Extract the config file and every partition
  update      Update an existing boot image in place
  create      Create a new boot image from scratch`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Only global output control flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")

	rootCmd.AddCommand(
		infoCmd,
		extractCmd,
		updateCmd,
		createCmd,
	)
}

// progressf prints command progress unless quiet output was requested.
func progressf(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}
