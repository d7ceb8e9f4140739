// Package fieldarray provides a compact array of small fixed-width unsigned
// values indexed by non-negative integers.
//
// A FieldArray with field width k stores a value in [0, 2^k) for every index
// in [0, MaxIndex]. Unassigned slots read as 0. Values are kept as k parallel
// bit planes: plane 0 holds the most significant bit of every slot and plane
// k-1 the least significant, so a one-bit array is a plain bitset and wider
// arrays cost k bits per slot up to the highest non-zero index.
//
// # Quick Start
//
//	fa, _ := fieldarray.New(4)          // 16 groups
//	_ = fa.Set(2, 15)
//	_ = fa.SetRange(3, 8, 6)             // inclusive
//	v, _ := fa.Get(5)                    // 6
//	next, _ := fa.NextClear(3)           // 9
//
// # Plane Backends
//
// plane.KindDense (default) grows one contiguous bitset per plane.
// plane.KindSegmented allocates 65536-bit segments on first write, which
// keeps arrays with a few very high indices small:
//
//	fa, _ := fieldarray.New(8, fieldarray.WithPlaneKind(plane.KindSegmented))
//
// # Scans
//
// NextSet, NextClear, PreviousSet and PreviousClear treat a slot as set when
// its value is non-zero. All iterates the non-zero slots; Match and Assign
// move between values and roaring bitmaps of indices; Histogram counts slots
// per value.
//
// # Snapshots
//
// WriteSnapshot and ReadSnapshot stream a self-describing, checksummed
// snapshot: a 32-byte header, one block per plane (optionally LZ4 or ZSTD
// compressed) and a CRC32C trailer. Failures of the sink or source are
// reported as ErrIOFailure and undecodable bytes as ErrMalformedSnapshot:
//
//	err := fa.WriteSnapshotToPath("groups.snap", fieldarray.WithCompression(fieldarray.CompressionZSTD))
//	fa, err = fieldarray.ReadSnapshotFromPath("groups.snap")
//
// Save and Load do the same through any blobstore.Store (local directory,
// SQLite, S3, MinIO); package catalog adds numbered versions on top.
//
// # Concurrency
//
// A FieldArray is not safe for concurrent use. Reads may proceed in parallel
// only while no goroutine writes.
package fieldarray
