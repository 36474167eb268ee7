// Package daemon coordinates the long-running Newsreel process.
//
// It wires configuration, the run history store, topic settings, the pipeline
// orchestrator, and the dashboard server into a single lifecycle with
// flock-based locking to prevent multiple instances.
package daemon
