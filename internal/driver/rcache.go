package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"rillcheck/internal/diag"
	"rillcheck/internal/observ"
	"rillcheck/internal/rules"
	"rillcheck/internal/source"
)

const reportCacheSchemaVersion = 1

// Digest identifies a dump together with the analysis settings that
// produced its report.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// ReportCache persists per-file reports on disk so unchanged dumps are
// not re-analyzed. Entries are keyed by a digest over the dump bytes and
// every input that can change the outcome.
type ReportCache struct {
	mu  sync.RWMutex
	dir string
}

type reportPayload struct {
	Schema   int              `msgpack:"schema"`
	Path     string           `msgpack:"path"`
	Diags    []diagPayload    `msgpack:"diags"`
	Failures []failurePayload `msgpack:"failures"`
	Timing   observ.Report    `msgpack:"timing"`
}

type diagPayload struct {
	Severity uint8         `msgpack:"sev"`
	Code     uint32        `msgpack:"code"`
	Message  string        `msgpack:"msg"`
	Line     uint32        `msgpack:"line"`
	Col      uint32        `msgpack:"col"`
	Len      uint32        `msgpack:"len"`
	Notes    []notePayload `msgpack:"notes,omitempty"`
	FixTitle string        `msgpack:"fix,omitempty"`
}

type notePayload struct {
	Message string `msgpack:"msg"`
	Line    uint32 `msgpack:"line"`
	Col     uint32 `msgpack:"col"`
	Len     uint32 `msgpack:"len"`
}

type failurePayload struct {
	RuleID string `msgpack:"rule"`
	Err    string `msgpack:"err"`
}

// OpenReportCache opens the default user-level cache directory.
func OpenReportCache() (*ReportCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenReportCacheAt(filepath.Join(base, "rillcheck", "reports"))
}

// OpenReportCacheAt opens (creating if needed) a cache rooted at dir.
func OpenReportCacheAt(dir string) (*ReportCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &ReportCache{dir: dir}, nil
}

// CacheKey digests the dump bytes plus every analysis input that affects
// the report: tool version, rule set, and the effective configuration.
func CacheKey(dump []byte, opts Options) Digest {
	h := sha256.New()
	h.Write(dump)
	fmt.Fprintf(h, "\x00tool=%s", opts.ToolVersion)

	ids := make([]string, 0, len(opts.Rules))
	for _, r := range opts.Rules {
		ids = append(ids, r.ID)
	}
	sort.Strings(ids)
	fmt.Fprintf(h, "\x00rules=%s", strings.Join(ids, ","))

	cfg := opts.Config
	fmt.Fprintf(h, "\x00threshold=%d\x00max=%d", cfg.Threshold, opts.MaxDiagnostics)
	fmt.Fprintf(h, "\x00exclude=%s", strings.Join(cfg.Exclude, ","))

	ruleNames := make([]string, 0, len(cfg.Rules))
	for name := range cfg.Rules {
		ruleNames = append(ruleNames, name)
	}
	sort.Strings(ruleNames)
	for _, name := range ruleNames {
		rc := cfg.Rules[name]
		enabled := true
		if rc.Enabled != nil {
			enabled = *rc.Enabled
		}
		fmt.Fprintf(h, "\x00rule.%s=%t,%s", name, enabled, rc.Level)
	}

	var d Digest
	h.Sum(d[:0])
	return d
}

func (c *ReportCache) pathFor(key Digest) string {
	name := key.String()
	return filepath.Join(c.dir, name[:2], name[2:]+".msgpack")
}

// Load returns the cached report for key, rebinding spans to fileID.
// A miss or an undecodable entry returns (nil, false).
func (c *ReportCache) Load(key Digest, fileID source.FileID) (*rules.Report, bool) {
	c.mu.RLock()
	data, err := os.ReadFile(c.pathFor(key))
	c.mu.RUnlock()
	if err != nil {
		return nil, false
	}

	var payload reportPayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, false
	}
	if payload.Schema != reportCacheSchemaVersion {
		return nil, false
	}

	diags := make([]diag.Diagnostic, 0, len(payload.Diags))
	for _, d := range payload.Diags {
		item := diag.Diagnostic{
			Severity: diag.Severity(d.Severity),
			Code:     diag.Code(d.Code),
			Message:  d.Message,
			Primary:  source.Span{File: fileID, Line: d.Line, Col: d.Col, Len: d.Len},
		}
		for _, n := range d.Notes {
			item.Notes = append(item.Notes, diag.Note{
				Msg:  n.Message,
				Span: source.Span{File: fileID, Line: n.Line, Col: n.Col, Len: n.Len},
			})
		}
		if d.FixTitle != "" {
			item.Fixes = []diag.Fix{{Title: d.FixTitle}}
		}
		diags = append(diags, item)
	}

	failures := make([]rules.RuleFailure, 0, len(payload.Failures))
	for _, f := range payload.Failures {
		failures = append(failures, rules.RuleFailure{RuleID: f.RuleID, Err: f.Err})
	}

	return rules.NewReport(payload.Path, diags, failures, payload.Timing), true
}

// Store writes the report under key. Writes go through a temp file so a
// crashed run never leaves a truncated entry behind.
func (c *ReportCache) Store(key Digest, report *rules.Report) error {
	payload := reportPayload{
		Schema: reportCacheSchemaVersion,
		Path:   report.Path,
		Timing: report.Timing,
	}
	for _, d := range report.Bag.Items() {
		item := diagPayload{
			Severity: uint8(d.Severity),
			Code:     uint32(d.Code),
			Message:  d.Message,
			Line:     d.Primary.Line,
			Col:      d.Primary.Col,
			Len:      d.Primary.Len,
		}
		for _, n := range d.Notes {
			item.Notes = append(item.Notes, notePayload{
				Message: n.Msg,
				Line:    n.Span.Line,
				Col:     n.Span.Col,
				Len:     n.Span.Len,
			})
		}
		item.FixTitle = d.FixSuggestion()
		payload.Diags = append(payload.Diags, item)
	}
	for _, f := range report.Failures {
		payload.Failures = append(payload.Failures, failurePayload{RuleID: f.RuleID, Err: f.Err})
	}

	data, err := msgpack.Marshal(&payload)
	if err != nil {
		return fmt.Errorf("encode cached report: %w", err)
	}

	dst := c.pathFor(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create cache bucket: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}

// Clear removes every cached entry.
func (c *ReportCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return os.MkdirAll(c.dir, 0o755)
}
