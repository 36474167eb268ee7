// Package config loads, validates, and defaults the TOML configuration that
// drives both the one-shot CLI pipeline and the dashboard daemon.
package config
