// Package config loads and validates the role monitor configuration.
//
// Configuration is a YAML file (default /etc/rolemond/config.yaml). Missing
// keys are filled from built-in defaults, so a partial file is valid and an
// absent file yields a fully defaulted configuration. The `run` command
// writes the defaulted file on first start so operators have a concrete file
// to edit.
//
// Precedence for the Prometheus targets directory is CLI flag, then config
// file, then the built-in default path on the shared filesystem.
package config
