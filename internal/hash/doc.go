// Package hash provides hardware-accelerated checksums for snapshot integrity.
//
// All checksums use CRC32-Castagnoli (CRC32C): it is hardware accelerated on
// x86 (SSE4.2) and ARM (CRC extension), and S3 accepts it natively as an
// upload checksum, so the same value protects a snapshot on disk and in flight.
//
// One-shot:
//
//	checksum := hash.CRC32C(data)
//
// Streaming:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
package hash
