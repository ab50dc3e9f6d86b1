// Package config loads the application configuration from defaults, an
// optional config.yaml, a .env file, environment variables and command-line
// flags, in increasing order of precedence, and validates the result.
package config
