// Package config loads flowir settings.
//
// Settings come from three layers, later layers winning:
//
//  1. Defaults (see Default)
//  2. The YAML file .flowir.yaml (unknown keys are rejected)
//  3. FLOWIR_* environment variables, optionally read from a .env file
//
// Command-line flags are applied on top by the CLI.
package config
