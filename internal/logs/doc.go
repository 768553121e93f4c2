// Package logs reads the garden log file for `garden logs`.
//
// Last returns the final lines of the file with bounded memory, and Follow
// polls for appended lines until its context ends. A missing file is treated
// as empty so the command works before the first fetch has logged anything.
package logs
