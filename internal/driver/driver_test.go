package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"rillcheck/internal/ast"
	"rillcheck/internal/callgraph"
	"rillcheck/internal/config"
	"rillcheck/internal/diag"
	"rillcheck/internal/observ"
	"rillcheck/internal/rules"
	"rillcheck/internal/source"
	"rillcheck/internal/testkit"
)

// A dump whose single function calls Database.save without declaring the
// Database effect, so every analysis of it yields one completeness error.
const incompleteDump = `{
  "path": "app/main.rill",
  "source": "fn main() {\n    Database.save(order)\n}\n",
  "decls": [
    {
      "kind": "func",
      "name": "main",
      "effects": [],
      "return": {"name": "Unit"},
      "span": {"line": 1, "col": 4, "len": 4},
      "body": [
        {
          "kind": "expr",
          "span": {"line": 2, "col": 5, "len": 20},
          "expr": {
            "kind": "call",
            "callee": "Database.save",
            "span": {"line": 2, "col": 5, "len": 20},
            "args": [{"kind": "ident", "name": "order", "span": {"line": 2, "col": 19, "len": 5}}]
          }
        }
      ]
    }
  ]
}`

func testOptions() Options {
	return Options{
		Config:         config.Default(),
		Rules:          rules.DefaultRules(),
		Provider:       callgraph.HeuristicProvider{},
		MaxDiagnostics: 100,
		ToolVersion:    "test",
	}
}

func writeDump(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	return path
}

func TestDecodeDump(t *testing.T) {
	fs := source.NewFileSet()
	prog, fileID, err := DecodeDump([]byte(incompleteDump), "ignored.ast.json", fs)
	if err != nil {
		t.Fatalf("DecodeDump: %v", err)
	}
	if prog.Path != "app/main.rill" {
		t.Errorf("prog.Path = %q", prog.Path)
	}
	f := fs.Get(fileID)
	if f == nil {
		t.Fatalf("file %d not registered", fileID)
	}
	if f.Path != "app/main.rill" {
		t.Errorf("registered path = %q", f.Path)
	}
	if got := f.GetLine(2); got != "    Database.save(order)" {
		t.Errorf("GetLine(2) = %q", got)
	}
	if len(prog.Decls) != 1 {
		t.Fatalf("decls = %d", len(prog.Decls))
	}
	if err := testkit.CheckSpanInvariants(prog, f); err != nil {
		t.Errorf("decoded spans: %v", err)
	}
}

func TestDecodeDump_FallbackPath(t *testing.T) {
	fs := source.NewFileSet()
	prog, fileID, err := DecodeDump([]byte(`{"decls": []}`), "gen/out.ast.json", fs)
	if err != nil {
		t.Fatalf("DecodeDump: %v", err)
	}
	if prog.Path != "gen/out.ast.json" {
		t.Errorf("prog.Path = %q", prog.Path)
	}
	f := fs.Get(fileID)
	if f == nil || f.Flags&source.FileNoContent == 0 {
		t.Errorf("sourceless dump should register a contentless file, got %+v", f)
	}
}

func TestDecodeDump_Malformed(t *testing.T) {
	fs := source.NewFileSet()
	if _, _, err := DecodeDump([]byte("not json"), "x.ast.json", fs); !errors.Is(err, ast.ErrBadDump) {
		t.Errorf("err = %v, want ErrBadDump", err)
	}
}

func TestAnalyzeFile(t *testing.T) {
	path := writeDump(t, "main.ast.json", incompleteDump)
	fs := source.NewFileSet()

	res, err := AnalyzeFile(path, fs, testOptions())
	if err != nil {
		t.Fatalf("AnalyzeFile: %v", err)
	}
	if res.CacheHit {
		t.Errorf("cache hit without a cache")
	}
	if res.Path != "app/main.rill" {
		t.Errorf("res.Path = %q", res.Path)
	}
	if got := res.Report.ByRule["effect-completeness"]; got != 1 {
		t.Errorf("effect-completeness count = %d, report: %+v", got, res.Report.ByRule)
	}
	if !res.Report.HasErrors() {
		t.Errorf("report should have errors")
	}
}

func TestAnalyzeFile_StructuralError(t *testing.T) {
	dump := `{
  "path": "dup.rill",
  "decls": [
    {"kind": "func", "name": "f", "effects": [], "return": {"name": "Unit"}, "span": {"line": 1, "col": 1, "len": 1}},
    {"kind": "func", "name": "f", "effects": [], "return": {"name": "Unit"}, "span": {"line": 2, "col": 1, "len": 1}}
  ]
}`
	path := writeDump(t, "dup.ast.json", dump)
	if _, err := AnalyzeFile(path, source.NewFileSet(), testOptions()); err == nil {
		t.Fatalf("duplicate function must fail analysis")
	}
}

func TestReportCache_RoundTrip(t *testing.T) {
	cache, err := OpenReportCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	opts := testOptions()
	opts.Cache = cache

	path := writeDump(t, "main.ast.json", incompleteDump)

	first, err := AnalyzeFile(path, source.NewFileSet(), opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.CacheHit {
		t.Errorf("first run must miss")
	}

	// Fresh FileSet: the file gets a new id and cached spans must follow it.
	fs := source.NewFileSet()
	second, err := AnalyzeFile(path, fs, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.CacheHit {
		t.Fatalf("second run must hit")
	}
	items := second.Report.Bag.Items()
	if len(items) != first.Report.Bag.Len() {
		t.Fatalf("cached diagnostics = %d, want %d", len(items), first.Report.Bag.Len())
	}
	for _, d := range items {
		if d.Primary.File != second.FileID {
			t.Errorf("span file = %d, want %d", d.Primary.File, second.FileID)
		}
	}
	if items[0].Code != first.Report.Bag.Items()[0].Code {
		t.Errorf("cached code = %v, want %v", items[0].Code, first.Report.Bag.Items()[0].Code)
	}
}

func TestCacheKey(t *testing.T) {
	opts := testOptions()
	dump := []byte(incompleteDump)

	if CacheKey(dump, opts) != CacheKey(dump, opts) {
		t.Errorf("key must be deterministic")
	}

	other := testOptions()
	other.ToolVersion = "test2"
	if CacheKey(dump, opts) == CacheKey(dump, other) {
		t.Errorf("tool version must change the key")
	}

	other = testOptions()
	other.Config.Threshold = diag.SevError
	if CacheKey(dump, opts) == CacheKey(dump, other) {
		t.Errorf("threshold must change the key")
	}

	other = testOptions()
	enabled := false
	other.Config.Rules = map[string]config.RuleConfig{
		"effect-minimality": {Enabled: &enabled},
	}
	if CacheKey(dump, opts) == CacheKey(dump, other) {
		t.Errorf("per-rule config must change the key")
	}

	if CacheKey(dump, opts) == CacheKey([]byte("{}"), opts) {
		t.Errorf("dump bytes must change the key")
	}
}

func TestReportCache_MissAndClear(t *testing.T) {
	cache, err := OpenReportCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	var key Digest
	key[0] = 0xab
	if _, ok := cache.Load(key, 1); ok {
		t.Fatalf("unknown key must miss")
	}

	report := rules.NewReport("x.rill", nil, nil, observ.Report{})
	if err := cache.Store(key, report); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, ok := cache.Load(key, 1); !ok {
		t.Fatalf("stored key must hit")
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := cache.Load(key, 1); ok {
		t.Errorf("cleared cache must miss")
	}
}

func TestListDumps(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(rel string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	mustWrite("b.ast.json")
	mustWrite("sub/a.ast.json")
	mustWrite("notes.txt")
	mustWrite("other.json")

	dumps, err := ListDumps(dir)
	if err != nil {
		t.Fatalf("ListDumps: %v", err)
	}
	want := []string{
		filepath.Join(dir, "b.ast.json"),
		filepath.Join(dir, "sub", "a.ast.json"),
	}
	if len(dumps) != len(want) {
		t.Fatalf("dumps = %v, want %v", dumps, want)
	}
	for i := range want {
		if dumps[i] != want[i] {
			t.Errorf("dumps[%d] = %q, want %q", i, dumps[i], want[i])
		}
	}
}

func TestAnalyzeDir(t *testing.T) {
	dir := t.TempDir()
	good := `{
  "path": "good.rill",
  "source": "fn main() {\n    Database.save(x)\n}\n",
  "decls": [
    {
      "kind": "func", "name": "main", "effects": [], "return": {"name": "Unit"},
      "span": {"line": 1, "col": 4, "len": 4},
      "body": [
        {"kind": "expr", "span": {"line": 2, "col": 5, "len": 16},
         "expr": {"kind": "call", "callee": "Database.save", "span": {"line": 2, "col": 5, "len": 16}}}
      ]
    }
  ]
}`
	if err := os.WriteFile(filepath.Join(dir, "good.ast.json"), []byte(good), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.ast.json"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := AnalyzeDir(context.Background(), dir, source.NewFileSet(), 2, testOptions())
	if err != nil {
		t.Fatalf("AnalyzeDir: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %+v, want one for the broken dump", res.Errors)
	}
	if got := filepath.Base(res.Errors[0].Path); got != "broken.ast.json" {
		t.Errorf("failed path = %q", got)
	}
	if len(res.Files) != 1 {
		t.Fatalf("files = %d", len(res.Files))
	}
	if res.Combined == nil || res.Combined.ByRule["effect-completeness"] != 1 {
		t.Errorf("combined = %+v", res.Combined)
	}
}
