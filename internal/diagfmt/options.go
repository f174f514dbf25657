package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto keeps the path exactly as registered.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// TextOpts configures the plain-text renderer.
type TextOpts struct {
	Color       bool
	PathMode    PathMode
	ShowNotes   bool
	ShowFixes   bool
	ShowContext bool // print the offending source line with an underline
	ShowTimings bool
}

// JSONOpts configures JSON output.
type JSONOpts struct {
	PathMode       PathMode
	IncludeNotes   bool
	IncludeFixes   bool
	IncludeTimings bool
}

// SarifRunMeta provides tool metadata for SARIF output.
type SarifRunMeta struct {
	ToolName    string
	ToolVersion string
	InfoURI     string
}
