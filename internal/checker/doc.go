// Package checker probes proxies and builds the status snapshot served to
// the dashboard. Each proxy is asked to fetch a "generate 204" URL; the
// elapsed time becomes its delay, and the fastest healthy proxy becomes the
// best proxy.
//
// Pass checks the proxy list once. Loop repeats passes on a ticker until
// its context is cancelled.
package checker
