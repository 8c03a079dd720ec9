// Package config loads and validates keyflow's TOML configuration.
//
// Configuration is optional: every field has a usable default, and Load
// falls back to defaults when no file exists. Path fields are expanded
// (tilde and environment-free) and normalized before validation so the rest
// of the system never handles unresolved paths.
package config
