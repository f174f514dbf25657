package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rillcheck/internal/config"
	"rillcheck/internal/diagfmt"
	"rillcheck/internal/driver"
	"rillcheck/internal/rules"
	"rillcheck/internal/source"
	"rillcheck/internal/version"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <file.ast.json|directory>",
	Short: "Analyze serialized rill syntax dumps",
	Long:  `Analyze a single frontend dump or every *.ast.json file within a directory, applying the configured rule set`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("format", "", "output format (text|json|sarif); overrides the config file")
	analyzeCmd.Flags().String("config", "", "path to rillcheck.toml (default: rillcheck.toml next to the input if present)")
	analyzeCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	analyzeCmd.Flags().Bool("cache", false, "reuse cached reports for unchanged dumps")
	analyzeCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	analyzeCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	analyzeCmd.Flags().Bool("context", false, "print offending source lines under each diagnostic")
	analyzeCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	enableCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	withContext, err := cmd.Flags().GetBool("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	if configPath == "" {
		if _, statErr := os.Stat("rillcheck.toml"); statErr == nil {
			configPath = "rillcheck.toml"
		}
	}

	ruleList := rules.DefaultRules()
	knownRules := make([]string, 0, len(ruleList))
	for _, r := range ruleList {
		knownRules = append(knownRules, r.ID)
	}
	cfg, warnings := config.Load(configPath, config.LoadOptions{
		EngineVersion: version.Version,
		KnownRules:    knownRules,
	})
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if format == "" {
		format = cfg.OutputFormat
	}
	switch format {
	case "text", "json", "sarif":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	opts := driver.Options{
		Config:         cfg,
		Rules:          ruleList,
		MaxDiagnostics: maxDiagnostics,
		ToolVersion:    version.Version,
	}
	if enableCache {
		cache, err := driver.OpenReportCache()
		if err != nil {
			return fmt.Errorf("failed to open report cache: %w", err)
		}
		opts.Cache = cache
	}

	st, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	fileSet := source.NewFileSet()
	var report *rules.Report
	if st.IsDir() {
		fileSet.SetBaseDir(inputPath)
		run, err := driver.AnalyzeDir(cmd.Context(), inputPath, fileSet, jobs, opts)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		for _, fe := range run.Errors {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", fe.Path, fe.Err)
		}
		report = run.Combined
		if len(run.Errors) > 0 {
			renderReport(cmd, report, fileSet, format, renderOpts{
				withNotes: withNotes, suggest: suggest,
				withContext: withContext, fullPath: fullPath, timings: showTimings,
			})
			return fmt.Errorf("%d file(s) could not be analyzed", len(run.Errors))
		}
	} else {
		result, err := driver.AnalyzeFile(inputPath, fileSet, opts)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		report = result.Report
	}

	if err := renderReport(cmd, report, fileSet, format, renderOpts{
		withNotes: withNotes, suggest: suggest,
		withContext: withContext, fullPath: fullPath, timings: showTimings,
	}); err != nil {
		return err
	}

	if report.HasErrors() {
		exitCode = 1
	}
	return nil
}

type renderOpts struct {
	withNotes   bool
	suggest     bool
	withContext bool
	fullPath    bool
	timings     bool
}

func renderReport(cmd *cobra.Command, report *rules.Report, fileSet *source.FileSet, format string, opts renderOpts) error {
	pathMode := diagfmt.PathModeAuto
	if opts.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	switch format {
	case "text":
		diagfmt.Text(os.Stdout, report, fileSet, diagfmt.TextOpts{
			Color:       useColor(cmd),
			PathMode:    pathMode,
			ShowNotes:   opts.withNotes,
			ShowFixes:   opts.suggest,
			ShowContext: opts.withContext,
			ShowTimings: opts.timings,
		})
	case "json":
		if err := diagfmt.JSON(os.Stdout, report, fileSet, diagfmt.JSONOpts{
			PathMode:       pathMode,
			IncludeNotes:   opts.withNotes,
			IncludeFixes:   opts.suggest,
			IncludeTimings: opts.timings,
		}); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	case "sarif":
		if err := diagfmt.Sarif(os.Stdout, report, fileSet, diagfmt.SarifRunMeta{
			ToolName:    "rillcheck",
			ToolVersion: version.Version,
		}); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	}
	return nil
}
