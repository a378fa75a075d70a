// Package config loads the gateway configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// GATEWAY_* environment variables. The result is validated before use.
package config
