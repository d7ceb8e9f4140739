// Package s3 provides S3 implementations of blobstore.Store.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "snapshots/")
//
//	err = fieldarray.Save(ctx, store, "users/000001.snap", fa)
//
// # Stores
//
//   - Store: standard buckets. Streaming multipart uploads, ranged reads,
//     paginated listing and CRC32C checksums on small puts.
//   - ExpressStore: S3 Express One Zone directory buckets, adding conditional
//     creates (If-None-Match) through blobstore.ConditionalStore.
//   - DDBCommitStore: wraps any store and keeps "CURRENT" pointer blobs in
//     DynamoDB so that concurrent publishers are detected.
package s3
