// Package filesystem enumerates local files for ingestion.
//
// Scanner walks directory roots and returns one group per root. PhotoLibrary
// reads iPhoto and Photos bundles under a pictures directory and returns one
// group per album or library location. Watcher reports batches of changed
// paths so a long-running process can rescan promptly.
package filesystem
