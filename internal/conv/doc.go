// Package conv provides checked integer conversions for size and count
// fields read from or written to snapshots.
package conv
