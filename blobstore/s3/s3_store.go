package s3

import (
	"bytes"
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/fieldarray/blobstore"
)

// Store implements blobstore.Store for S3.
type Store struct {
	client Client
	bucket string
	prefix string
	upload UploadConfig
}

var _ blobstore.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithUploadConfig overrides DefaultUploadConfig.
func WithUploadConfig(cfg UploadConfig) Option {
	return func(s *Store) {
		s.upload = cfg
	}
}

// NewStore creates a new S3 blob store.
// rootPrefix is prepended to all keys (e.g. "snapshots/").
func NewStore(client Client, bucket, rootPrefix string, optFns ...Option) *Store {
	s := &Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(rootPrefix, "/"),
		upload: DefaultUploadConfig(),
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// key maps a blob name to its object key. A trailing slash is kept so that
// list prefixes stay directory-like.
func (s *Store) key(name string) string {
	name = strings.TrimLeft(name, "/")
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	return openBlob(ctx, s.client, s.bucket, s.key(name))
}

// Create starts a streaming upload. The object appears when Close succeeds;
// Abort discards it.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	uploader := newUploader(s.client, s.upload)
	return newStreamingWritableBlob(ctx, uploader, s.bucket, s.key(name), s.upload.EnableChecksum), nil
}

// Put uploads a small blob in a single request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if s.upload.EnableChecksum {
		return putWithChecksum(ctx, s.client, s.bucket, s.key(name), data)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return err
}

// Delete removes the object. S3 deletes are idempotent.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	return listObjects(ctx, s.client, s.bucket, s.key(prefix), s.prefix)
}
