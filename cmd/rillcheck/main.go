package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rillcheck/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "rillcheck",
	Short: "Static analyzer for rill effect and error-handling discipline",
	Long:  `rillcheck analyzes serialized rill syntax trees for purity violations, effect declaration problems and Result handling mistakes`,
}

// exitCode is raised by subcommands when the run itself succeeded but
// produced error-level findings. Operational failures exit with 2.
var exitCode int

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 1000, "maximum number of diagnostics per file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
	os.Exit(exitCode)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func useColor(cmd *cobra.Command) bool {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false
	}
	return colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))
}
