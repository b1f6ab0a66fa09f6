// Package config loads application configuration.
//
// Settings come from defaults, an optional YAML file named by
// BEACON_CONFIG_FILE, and BEACON_* environment variables; the environment
// always wins. LoadConfig validates the result before returning it.
package config
