// Package handler implements the HTTP handlers of the dashboard server:
// the status file API, the rendered dashboard page with its refresh
// control, and request logging.
package handler
