// Package storage persists the monitor's two durable scalars: the last
// observed status and the time of the last delivered notification.
//
// Drivers:
//   - "file": two plain-text files in a directory (default)
//   - "sqlite": a single-table SQLite database
package storage
