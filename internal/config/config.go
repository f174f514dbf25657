// Package config loads rillcheck.toml. Configuration is advisory: a missing
// or broken file never aborts a run, it degrades to Default() with warnings
// the CLI prints to stderr.
package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"rillcheck/internal/diag"
)

// RuleConfig is a per-rule override. Zero value means "rule defaults".
type RuleConfig struct {
	Enabled    *bool          `toml:"enabled"`
	Level      string         `toml:"level"`
	Parameters map[string]any `toml:"parameters"`
}

// Config is the engine configuration after normalization.
type Config struct {
	Engine            string                `toml:"engine"`
	Exclude           []string              `toml:"exclude"`
	SeverityThreshold string                `toml:"severity_threshold"`
	AutoFix           bool                  `toml:"auto_fix"`
	OutputFormat      string                `toml:"output_format"`
	Rules             map[string]RuleConfig `toml:"rules"`

	// Threshold is the parsed form of SeverityThreshold.
	Threshold diag.Severity `toml:"-"`
}

// Default returns the documented fallback: every rule enabled at its own
// default level, threshold warning, text output.
func Default() Config {
	return Config{
		SeverityThreshold: "warning",
		Threshold:         diag.SevWarning,
		OutputFormat:      "text",
		Rules:             map[string]RuleConfig{},
	}
}

// LoadOptions parameterize Load.
type LoadOptions struct {
	// EngineVersion is checked against the config's engine constraint.
	EngineVersion string
	// KnownRules lets Load warn on rule ids that no registered rule owns.
	KnownRules []string
}

// Load reads and normalizes a config file. It never fails: any problem is
// reported in the returned warnings and the affected portion falls back to
// Default(). An empty path yields the default config with no warnings.
func Load(configPath string, opts LoadOptions) (Config, []string) {
	if configPath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- path is provided by the caller
	if err != nil {
		return Default(), []string{fmt.Sprintf("config %s is unreadable (%v); using defaults", configPath, err)}
	}

	cfg := Default()
	var warnings []string
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Default(), []string{fmt.Sprintf("config %s is malformed (%v); using defaults", configPath, err)}
	}
	if cfg.Rules == nil {
		cfg.Rules = map[string]RuleConfig{}
	}

	warnings = append(warnings, cfg.normalize(opts)...)
	return cfg, warnings
}

func (c *Config) normalize(opts LoadOptions) []string {
	var warnings []string

	threshold, err := diag.ParseSeverity(c.SeverityThreshold)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("%v; severity threshold falls back to warning", err))
		c.SeverityThreshold = "warning"
		threshold = diag.SevWarning
	}
	c.Threshold = threshold

	switch c.OutputFormat {
	case "", "text", "json", "sarif":
		if c.OutputFormat == "" {
			c.OutputFormat = "text"
		}
	default:
		warnings = append(warnings, fmt.Sprintf("unknown output format %q; falling back to text", c.OutputFormat))
		c.OutputFormat = "text"
	}

	for id, rc := range c.Rules {
		if rc.Level == "" {
			continue
		}
		if _, err := diag.ParseSeverity(rc.Level); err != nil {
			warnings = append(warnings, fmt.Sprintf("rule %s: %v; level override ignored", id, err))
			rc.Level = ""
			c.Rules[id] = rc
		}
	}

	if len(opts.KnownRules) > 0 {
		known := make(map[string]bool, len(opts.KnownRules))
		for _, id := range opts.KnownRules {
			known[id] = true
		}
		for id := range c.Rules {
			if !known[id] {
				warnings = append(warnings, fmt.Sprintf("config references unknown rule %q", id))
			}
		}
	}

	if c.Engine != "" && opts.EngineVersion != "" {
		warnings = append(warnings, checkEngineConstraint(c.Engine, opts.EngineVersion)...)
	}

	return warnings
}

func checkEngineConstraint(constraint, version string) []string {
	cons, err := semver.NewConstraint(constraint)
	if err != nil {
		return []string{fmt.Sprintf("invalid engine constraint %q: %v", constraint, err)}
	}
	ver, err := semver.NewVersion(strings.TrimSuffix(version, "-dev"))
	if err != nil {
		return []string{fmt.Sprintf("cannot parse engine version %q: %v", version, err)}
	}
	if !cons.Check(ver) {
		return []string{fmt.Sprintf("engine version %s does not satisfy configured constraint %q", version, constraint)}
	}
	return nil
}

// RuleLevel returns the effective severity for a rule, falling back to the
// given default when no valid override exists.
func (c *Config) RuleLevel(id string, def diag.Severity) diag.Severity {
	rc, ok := c.Rules[id]
	if !ok || rc.Level == "" {
		return def
	}
	sev, err := diag.ParseSeverity(rc.Level)
	if err != nil {
		return def
	}
	return sev
}

// RuleEnabled reports whether the rule is enabled (default true).
func (c *Config) RuleEnabled(id string) bool {
	rc, ok := c.Rules[id]
	if !ok || rc.Enabled == nil {
		return true
	}
	return *rc.Enabled
}

// Excluded reports whether a file path matches any exclude glob. Patterns
// use path.Match semantics against the slash-normalized path; a leading
// "**/" additionally matches at any directory depth.
func (c *Config) Excluded(filePath string) bool {
	p := strings.ReplaceAll(filePath, "\\", "/")
	for _, pattern := range c.Exclude {
		if matchGlob(pattern, p) {
			return true
		}
	}
	return false
}

func matchGlob(pattern, p string) bool {
	if ok, err := path.Match(pattern, p); err == nil && ok {
		return true
	}
	if rest, found := strings.CutPrefix(pattern, "**/"); found {
		if ok, err := path.Match(rest, p); err == nil && ok {
			return true
		}
		for i := 0; i < len(p); i++ {
			if p[i] != '/' {
				continue
			}
			if ok, err := path.Match(rest, p[i+1:]); err == nil && ok {
				return true
			}
		}
	}
	return false
}
