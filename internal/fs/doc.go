// Package fs provides filesystem abstractions for testability and fault injection.
//
//   - [FileSystem] and [File] cover the operations snapshot writers and the
//     local blob store need.
//   - [LocalFS] is the production implementation; [Default] points at it.
//   - [FaultyFS] injects open, write, sync, close and rename failures.
//   - [WriteFileAtomic] writes through a synced temporary file and a rename.
//
// Tests inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".snap", fs.Fault{FailAfterBytes: 1024})
//
// Operations take no context.Context: local syscalls are not interruptible.
// Remote storage goes through the blobstore package, which does.
package fs
