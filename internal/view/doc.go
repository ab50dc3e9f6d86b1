// Package view holds the dashboard view model: two summary fields and a
// results table, mutated by the refresher and rendered either as an HTML
// page or as a terminal screen.
//
// Dashboard is safe for concurrent use. Every mutation replaces state
// wholesale, so overlapping writers resolve to the last write.
package view
