// Package status defines the proxy status snapshot exchanged between the
// checker, the status API and the dashboard. It handles JSON decoding,
// shape validation and reading/writing the status file.
package status
