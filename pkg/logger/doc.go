// Package logger builds the application's slog logger. Production uses
// structured JSON; other environments get colored, human-readable output.
package logger
