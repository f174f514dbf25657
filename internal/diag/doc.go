// Package diag defines the diagnostic model shared by every analysis rule.
//
//   - Severity is the tri-level enum (Info, Warning, Error) from severity.go.
//   - Code is a compact numeric identifier (codes.go) with a stable string
//     form; every code belongs to exactly one rule (RuleID) and one category.
//   - Diagnostic is the central record: severity + code + message + primary
//     span, with optional notes and fix suggestions.
//   - Bag aggregates diagnostics with deterministic sorting and merging.
//   - Reporter decouples emission from storage; rules report through it and
//     never touch a Bag directly.
//
// Package diag performs no formatting or IO. Rendering lives in
// internal/diagfmt; orchestration lives in internal/rules and the driver.
// Keep the data model deterministic so reports can be serialised for caching
// and golden tests.
package diag
