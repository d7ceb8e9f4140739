// Package blobstore provides storage for snapshots and version pointers.
//
// Store is the interface for reading and writing named, immutable blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for tests and ephemeral pipelines
//   - LocalStore: local directory with atomic writes and mmap reads
//   - s3.Store: Amazon S3 with streaming multipart uploads
//   - s3.CommitStore: S3 plus DynamoDB for atomic version pointers
//   - minio.Store: MinIO and other S3-compatible servers
//   - sqlite.Store: a single SQLite database file
//
// # Custom Implementations
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)            // Open for reading
//	    Create(ctx, name) (WritableBlob, error)  // Streaming write
//	    Put(ctx, name, data) error               // Atomic small write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Writable blobs that can discard a partial write implement Aborter; callers
// use Abort so a failed snapshot never becomes visible.
package blobstore
