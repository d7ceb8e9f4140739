package s3

import (
	"bytes"
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/hupe1980/fieldarray/blobstore"
)

// ErrConflict is returned when a conditional write loses because the object
// already exists. It matches blobstore.ErrExists.
var ErrConflict = blobstore.ErrExists

// ExpressStore is a Store for S3 Express One Zone directory buckets (names
// ending in --azid--x-s3). Besides the plain operations it supports
// conditional creates, which the catalog uses to claim version numbers.
type ExpressStore struct {
	*Store
}

var _ blobstore.ConditionalStore = (*ExpressStore)(nil)

// NewExpressStore creates a new S3 Express One Zone blob store.
func NewExpressStore(client Client, bucket, rootPrefix string, optFns ...Option) *ExpressStore {
	return &ExpressStore{Store: NewStore(client, bucket, rootPrefix, optFns...)}
}

// PutIfNotExists writes a blob only if the key is free, using If-None-Match.
func (s *ExpressStore) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		IfNoneMatch:   aws.String("*"),
	}
	if s.upload.EnableChecksum {
		input.ChecksumCRC32C = aws.String(computeCRC32C(data))
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "PreconditionFailed", "ConditionalRequestConflict":
				return ErrConflict
			}
		}
		return err
	}
	return nil
}
