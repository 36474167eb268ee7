// Package services defines the shared error taxonomy for pipeline stages and
// external collaborators.
//
// Stage implementations tag failures with one of the exported sentinel errors
// so callers (CLI, dashboard, history store) can classify an error without
// inspecting message text. Wrap composes a contextual message while preserving
// the marker for errors.Is checks; Kind recovers the marker's short name for
// display and persistence.
package services
