// Package config loads and validates the rfkilld configuration.
//
// Precedence: compiled baseline defaults, then RFKILL_* environment
// overrides, then an optional config.json, validated last. The debounce
// window and worker count feed the coordinator; everything else
// configures the ambient surfaces (telemetry, API, auth).
package config
