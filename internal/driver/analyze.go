// Package driver wires the analysis pipeline together: it owns all IO (dump
// loading, cache access), registers files, and hands read-only state to the
// rule engine. Everything below it is a pure computation.
package driver

import (
	"encoding/json"
	"fmt"

	"rillcheck/internal/ast"
	"rillcheck/internal/callgraph"
	"rillcheck/internal/config"
	"rillcheck/internal/effects"
	"rillcheck/internal/rules"
	"rillcheck/internal/source"
	"rillcheck/internal/symbols"
)

// Options configure an analysis run.
type Options struct {
	Config         config.Config
	Rules          []rules.Rule
	Provider       callgraph.EffectInferenceProvider
	MaxDiagnostics int
	Cache          *ReportCache
	ToolVersion    string
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path     string
	FileID   source.FileID
	Report   *rules.Report
	CacheHit bool
}

// AnalyzeProgram runs the full pipeline over an already-decoded program.
// It returns a structural error (duplicate names, malformed tree, solver
// divergence) when the file cannot be analyzed at all; rule-level problems
// are diagnostics inside the report, never errors.
func AnalyzeProgram(prog *ast.Program, path string, opts Options) (*rules.Report, error) {
	table, err := symbols.Build(prog)
	if err != nil {
		return nil, fmt.Errorf("declaration table: %w", err)
	}

	graph := callgraph.Build(table, callgraph.Options{Provider: opts.Provider})

	solution, err := effects.Solve(table, graph)
	if err != nil {
		return nil, fmt.Errorf("effect solver: %w", err)
	}

	ruleList := opts.Rules
	if ruleList == nil {
		ruleList = rules.DefaultRules()
	}
	engine := rules.NewEngine(ruleList, opts.Config, rules.Options{MaxDiagnostics: opts.MaxDiagnostics})
	return engine.AnalyzeFile(rules.Input{
		Path:    path,
		Program: prog,
		Table:   table,
		Graph:   graph,
		Effects: solution,
	}), nil
}

// DecodeDump registers the dump's file in the FileSet and decodes the
// program. The registered path is the rill source path recorded in the
// dump, falling back to dumpPath.
func DecodeDump(data []byte, dumpPath string, fs *source.FileSet) (*ast.Program, source.FileID, error) {
	var head struct {
		Path   string `json:"path"`
		Source string `json:"source"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ast.ErrBadDump, err)
	}
	path := head.Path
	if path == "" {
		path = dumpPath
	}

	var fileID source.FileID
	if head.Source != "" {
		fileID = fs.Add(path, []byte(head.Source), 0)
	} else {
		fileID = fs.AddPath(path)
	}

	prog, err := ast.DecodeProgram(data, fileID)
	if err != nil {
		return nil, 0, err
	}
	if prog.Path == "" {
		prog.Path = path
	}
	return prog, fileID, nil
}
