// Package history persists one row per pipeline run so the CLI and dashboard
// can show what was produced, when, and why a run failed. Failed runs keep
// the paths of any partial artifacts; nothing is deleted automatically.
package history
