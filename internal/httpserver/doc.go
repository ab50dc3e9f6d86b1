// Package httpserver wraps http.Server with address validation, a separate
// bind step and graceful shutdown.
package httpserver
