// Package config loads, validates, and normalizes the TOML configuration for
// the Veld runtime daemon. Defaults live in defaults.go and mirror the
// embedded sample_config.toml.
package config
