// Package logging provides slog construction and the structured field
// conventions shared across the pipeline, dashboard, and CLI.
//
// Two output formats are supported: a compact console format with color when
// stdout is a terminal, and line-delimited JSON for machine consumption.
// Context carriers propagate the run identifier and active stage so every log
// line emitted inside a pipeline run is attributable without plumbing fields
// by hand.
package logging
