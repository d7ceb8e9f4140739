// Package plane defines the bit-vector capability a field array is built from
// and provides its backends.
//
// A field array of width k keeps k planes; plane i stores bit (k-1-i) of every
// slot. The array only relies on the Plane interface, so backends can be
// swapped without touching the codec or scan logic.
//
// # Backends
//
//   - [Dense]: contiguous words via github.com/bits-and-blooms/bitset. Best
//     when keys are dense from zero, which is the expected workload.
//   - [Segmented]: 65536-bit segments allocated on first write. Keeps memory
//     proportional to touched regions when a few keys sit far apart.
//
// Both backends hash and compare by content, so a dense and a segmented plane
// holding the same bits are equal and hash identically.
package plane
