package diagfmt

import (
	"encoding/json"
	"io"

	"rillcheck/internal/diag"
	"rillcheck/internal/rules"
	"rillcheck/internal/source"
)

// SARIF 2.1.0 structures, limited to the subset downstream tooling consumes.

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string        `json:"id"`
	ShortDescription sarifText     `json:"shortDescription"`
	Properties       *sarifRuleTag `json:"properties,omitempty"`
}

type sarifRuleTag struct {
	Category string `json:"category,omitempty"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifText       `json:"message"`
	Locations []sarifLocation `json:"locations"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine"`
	StartColumn uint32 `json:"startColumn"`
	CharLength  uint32 `json:"charLength,omitempty"`
}

type sarifFix struct {
	Description sarifText `json:"description"`
}

// Sarif renders the report as SARIF 2.1.0: one driver rule entry per
// distinct ruleId seen, one result per diagnostic.
func Sarif(w io.Writer, report *rules.Report, fs *source.FileSet, meta SarifRunMeta) error {
	seenRules := make(map[string]bool)
	var driverRules []sarifRule
	results := make([]sarifResult, 0, report.Bag.Len())

	for _, d := range report.Bag.Items() {
		ruleID := d.Code.Rule()
		if !seenRules[ruleID] {
			seenRules[ruleID] = true
			driverRules = append(driverRules, sarifRule{
				ID:               ruleID,
				ShortDescription: sarifText{Text: d.Code.Title()},
				Properties:       &sarifRuleTag{Category: d.Code.Category()},
			})
		}

		uri := ""
		if f := fs.Get(d.Primary.File); f != nil {
			uri = f.Path
		}
		result := sarifResult{
			RuleID:  ruleID,
			Level:   sarifLevel(d.Severity),
			Message: sarifText{Text: d.Message},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: uri},
					Region: sarifRegion{
						StartLine:   d.Primary.Line,
						StartColumn: d.Primary.Col,
						CharLength:  d.Primary.Len,
					},
				},
			}},
		}
		if fix := d.FixSuggestion(); fix != "" {
			result.Fixes = []sarifFix{{Description: sarifText{Text: fix}}}
		}
		results = append(results, result)
	}

	log := sarifLog{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           meta.ToolName,
				Version:        meta.ToolVersion,
				InformationURI: meta.InfoURI,
				Rules:          driverRules,
			}},
			Results: results,
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "note"
	}
}
