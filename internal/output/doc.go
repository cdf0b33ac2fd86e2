// Package output writes trace records to their destinations: one CSV file
// per target, and an optional live table on a terminal.
package output
