// Package format defines the binary layout of field array snapshots.
//
// A snapshot is a fixed 32-byte [Header], one framed block per plane in plane
// order (plane 0 = most significant bit), and a 4-byte CRC32C trailer covering
// everything before it:
//
//	┌──────────────┬───────────────────────┬─────┬───────────────────────┬─────────┐
//	│ Header (32B) │ Block 0 (MSB plane)   │ ... │ Block k-1 (LSB plane) │ CRC32C  │
//	└──────────────┴───────────────────────┴─────┴───────────────────────┴─────────┘
//
// Each block is [raw size u32][stored size u32][payload]. A stored size of 0
// means the payload is the raw plane encoding; otherwise it is compressed
// with the algorithm named in the header. Blocks only compress when it saves
// at least 10%, so a compressed snapshot may still contain raw blocks.
//
// All integers are little-endian. The layout is self-delimiting: a reader
// consumes exactly one snapshot and leaves the stream positioned after it.
package format
