// Package config loads application configuration from environment
// variables (CURVEPULSE_ prefix) layered over an optional YAML file.
// Loaded values are passed into components explicitly; no package reads
// configuration from process-wide state after startup.
package config
