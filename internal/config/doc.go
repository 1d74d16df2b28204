// Package config loads and validates the TOML configuration.
//
// Load resolves the config file location, decodes it over the repository
// defaults, expands all path fields, and validates the result. Callers
// receive a Config whose paths are absolute and whose enums are
// normalized.
package config
