// Package watch runs the dashboard in a terminal. It refreshes once on
// start, refreshes again on each key press of the refresh key and repaints
// whenever the view changes.
package watch
