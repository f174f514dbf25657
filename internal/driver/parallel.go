package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"rillcheck/internal/ast"
	"rillcheck/internal/observ"
	"rillcheck/internal/rules"
	"rillcheck/internal/source"
)

// DumpSuffix marks the frontend's serialized syntax dumps.
const DumpSuffix = ".ast.json"

// FileError records a file that could not be analyzed at all.
type FileError struct {
	Path string
	Err  error
}

// RunResult aggregates a directory run.
type RunResult struct {
	Files    []FileResult
	Errors   []FileError
	Combined *rules.Report
}

// AnalyzeFile loads, decodes and analyzes a single dump.
func AnalyzeFile(dumpPath string, fileSet *source.FileSet, opts Options) (FileResult, error) {
	data, err := os.ReadFile(dumpPath)
	if err != nil {
		return FileResult{}, fmt.Errorf("read dump: %w", err)
	}

	var key Digest
	if opts.Cache != nil {
		key = CacheKey(data, opts)
	}

	prog, fileID, err := DecodeDump(data, dumpPath, fileSet)
	if err != nil {
		return FileResult{}, err
	}

	if opts.Cache != nil {
		if report, ok := opts.Cache.Load(key, fileID); ok {
			return FileResult{Path: prog.Path, FileID: fileID, Report: report, CacheHit: true}, nil
		}
	}

	report, err := AnalyzeProgram(prog, prog.Path, opts)
	if err != nil {
		return FileResult{}, err
	}
	if opts.Cache != nil {
		if err := opts.Cache.Store(key, report); err != nil {
			return FileResult{}, fmt.Errorf("store cached report: %w", err)
		}
	}
	return FileResult{Path: prog.Path, FileID: fileID, Report: report}, nil
}

// ListDumps walks root and returns every dump path, sorted.
func ListDumps(root string) ([]string, error) {
	var dumps []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, DumpSuffix) {
			dumps = append(dumps, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(dumps)
	return dumps, nil
}

type analysisUnit struct {
	dumpPath string
	data     []byte
	prog     *ast.Program
	fileID   source.FileID
	key      Digest
}

// AnalyzeDir analyzes every dump under dir with up to jobs workers.
// File registration is sequential because the FileSet is not safe for
// concurrent writes; analysis itself fans out.
func AnalyzeDir(ctx context.Context, dir string, fileSet *source.FileSet, jobs int, opts Options) (RunResult, error) {
	dumps, err := ListDumps(dir)
	if err != nil {
		return RunResult{}, err
	}

	var result RunResult
	units := make([]analysisUnit, 0, len(dumps))
	for _, dumpPath := range dumps {
		data, err := os.ReadFile(dumpPath)
		if err != nil {
			result.Errors = append(result.Errors, FileError{Path: dumpPath, Err: err})
			continue
		}
		prog, fileID, err := DecodeDump(data, dumpPath, fileSet)
		if err != nil {
			result.Errors = append(result.Errors, FileError{Path: dumpPath, Err: err})
			continue
		}
		unit := analysisUnit{dumpPath: dumpPath, data: data, prog: prog, fileID: fileID}
		if opts.Cache != nil {
			unit.key = CacheKey(data, opts)
		}
		units = append(units, unit)
	}

	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	results := make([]FileResult, len(units))
	failed := make([]error, len(units))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range units {
		i := i
		g.Go(func() error {
			unit := &units[i]
			if opts.Cache != nil {
				if report, ok := opts.Cache.Load(unit.key, unit.fileID); ok {
					results[i] = FileResult{Path: unit.prog.Path, FileID: unit.fileID, Report: report, CacheHit: true}
					return nil
				}
			}
			report, err := AnalyzeProgram(unit.prog, unit.prog.Path, opts)
			if err != nil {
				failed[i] = err
				return nil
			}
			if opts.Cache != nil {
				if err := opts.Cache.Store(unit.key, report); err != nil {
					failed[i] = err
					return nil
				}
			}
			results[i] = FileResult{Path: unit.prog.Path, FileID: unit.fileID, Report: report}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RunResult{}, err
	}

	combined := rules.NewReport(dir, nil, nil, observ.Report{})
	for i := range units {
		if failed[i] != nil {
			result.Errors = append(result.Errors, FileError{Path: units[i].dumpPath, Err: failed[i]})
			continue
		}
		result.Files = append(result.Files, results[i])
		combined.Merge(results[i].Report)
	}
	combined.Bag.Sort()
	result.Combined = combined
	return result, nil
}
