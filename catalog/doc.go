// Package catalog publishes versioned field array snapshots on a blob store.
//
// # Layout
//
// Every array name owns a directory of numbered snapshots and a pointer:
//
//	<name>/000001.snap
//	<name>/000002.snap
//	<name>/CURRENT        -> "000002.snap"
//
// Publish writes the next version and then moves CURRENT to it, so readers
// calling Latest never observe a partially written snapshot.
//
// # Concurrent publishers
//
// On a blobstore.ConditionalStore each version blob is claimed with
// PutIfNotExists; a publisher that loses the race retries with the next
// number. Wrapping the store in s3.DDBCommitStore moves CURRENT into
// DynamoDB, where a lost pointer update fails with
// s3.ErrConcurrentModification instead of being overwritten.
package catalog
