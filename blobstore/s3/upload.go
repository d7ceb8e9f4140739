package s3

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/fieldarray/internal/hash"
)

// UploadConfig configures the S3 uploader.
type UploadConfig struct {
	// PartSize is the minimum part size for multipart uploads.
	// Default: 8MB
	PartSize int64

	// Concurrency is the number of concurrent part uploads.
	// Default: 5
	Concurrency int

	// EnableChecksum enables CRC32C integrity validation.
	// Default: true
	EnableChecksum bool

	// LeavePartsOnError keeps uploaded parts of a failed multipart upload.
	// Default: false (abort on error)
	LeavePartsOnError bool
}

// DefaultUploadConfig returns the default upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:          8 * 1024 * 1024,
		Concurrency:       5,
		EnableChecksum:    true,
		LeavePartsOnError: false,
	}
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}

// computeCRC32C returns the checksum in the header format S3 expects:
// base64 of the big-endian bytes.
func computeCRC32C(data []byte) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], hash.CRC32C(data))
	return base64.StdEncoding.EncodeToString(b[:])
}

var errAborted = errors.New("s3: upload aborted")

// streamingWritableBlob pipes writes into a background manager upload.
// Aborting fails the pipe, so the uploader never completes the object and
// cleans up any multipart state itself.
type streamingWritableBlob struct {
	pw   *io.PipeWriter
	done chan error

	once     sync.Once
	aborted  bool
	closeErr error
}

func newStreamingWritableBlob(ctx context.Context, uploader *manager.Uploader, bucket, key string, enableChecksum bool) *streamingWritableBlob {
	pr, pw := io.Pipe()

	blob := &streamingWritableBlob{
		pw:   pw,
		done: make(chan error, 1),
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   pr,
	}
	if enableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	go func() {
		_, err := uploader.Upload(ctx, input)
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob
}

// Write blocks until the uploader consumes p. Writing after Close or Abort
// returns io.ErrClosedPipe.
func (b *streamingWritableBlob) Write(p []byte) (int, error) {
	return b.pw.Write(p)
}

// Close finishes the upload and waits for the result.
func (b *streamingWritableBlob) Close() error {
	b.once.Do(func() {
		_ = b.pw.Close()
		b.closeErr = <-b.done
	})
	if b.aborted {
		return nil
	}
	return b.closeErr
}

// Abort discards the upload. It is a no-op after a successful Close.
func (b *streamingWritableBlob) Abort(context.Context) error {
	b.once.Do(func() {
		b.aborted = true
		_ = b.pw.CloseWithError(errAborted)
		<-b.done
	})
	return nil
}

// Sync is a no-op; data is only committed on Close.
func (b *streamingWritableBlob) Sync() error {
	return nil
}

// putWithChecksum uploads a small blob with CRC32C integrity validation.
func putWithChecksum(ctx context.Context, client Client, bucket, key string, data []byte) error {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:         aws.String(bucket),
		Key:            aws.String(key),
		Body:           bytes.NewReader(data),
		ContentLength:  aws.Int64(int64(len(data))),
		ChecksumCRC32C: aws.String(computeCRC32C(data)),
	})
	return err
}
