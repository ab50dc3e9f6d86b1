// Package refresher fetches the proxy status snapshot and renders it into
// the dashboard view.
//
// A refresh is a single GET against the status endpoint followed by a full
// re-render of the summary fields and the results table. Any fetch or parse
// failure replaces both summary fields with the "load failed" placeholder
// and leaves the table as it was. Refreshes are independent of each other:
// they are neither serialized nor cancelled, and the last one to write the
// view wins.
package refresher
