// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Missing values fall back to operational defaults, and cross-field ordering
// (classifier windows, priority thresholds) is checked at load time.
package config
