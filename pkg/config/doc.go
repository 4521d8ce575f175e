// Package config loads scpsigma settings.
//
// Settings are layered: built-in defaults, then a YAML file, then a .env
// file loaded into the process environment, then SCPSIGMA_* environment
// variables. Command-line flags are applied last by the caller.
package config
