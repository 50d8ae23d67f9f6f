// Package config handles configuration for ht.
//
// It provides functionality for:
//   - Default configuration values
//   - Overrides from HT_* environment variables and NO_COLOR
//   - Parsing of shared values such as timeouts and --verify
package config
