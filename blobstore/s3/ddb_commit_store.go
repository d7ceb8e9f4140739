package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/fieldarray/blobstore"
)

// PointerName is the base name of blobs that DDBCommitStore keeps in
// DynamoDB instead of the wrapped store.
const PointerName = "CURRENT"

// DDBCommitStore wraps a blob store and keeps every "CURRENT" pointer blob
// in DynamoDB, which provides the compare-and-swap S3 lacks. Each pointer
// write appends version n+1 with a conditional put, so concurrent publishers
// cannot overwrite each other silently.
//
// Table schema:
//   - Partition key: base_uri (string), the base URI plus the pointer's directory
//   - Sort key: version (number), monotonically increasing
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name fieldarray-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
//
// Pointers are not returned by List.
type DDBCommitStore struct {
	inner     blobstore.Store
	ddbClient DDBClient
	tableName string
	baseURI   string
}

var _ blobstore.Store = (*DDBCommitStore)(nil)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// ErrConcurrentModification is returned when another writer committed the
// same pointer version first.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// NewDDBCommitStore creates a commit store over inner. baseURI (for example
// "s3://bucket/prefix") namespaces the partition keys.
func NewDDBCommitStore(inner blobstore.Store, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		inner:     inner,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

func isPointer(name string) bool {
	return path.Base(name) == PointerName
}

// partition returns the partition key for a pointer name.
func (s *DDBCommitStore) partition(name string) string {
	dir := path.Dir(path.Clean("/" + name))
	if dir == "/" {
		return s.baseURI
	}
	return s.baseURI + dir
}

// Open opens a blob for reading. Pointers resolve to their latest version.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if !isPointer(name) {
		return s.inner.Open(ctx, name)
	}
	version, target, err := s.getLatestVersion(ctx, s.partition(name))
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	return &pointerBlob{r: bytes.NewReader([]byte(target))}, nil
}

// Put writes a blob. Pointers are committed with a conditional write.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if isPointer(name) {
		return s.commitVersion(ctx, s.partition(name), string(data))
	}
	return s.inner.Put(ctx, name, data)
}

// Create creates a writable blob. Pointer writes are buffered and committed
// on Close.
func (s *DDBCommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if isPointer(name) {
		return &pointerWritableBlob{ctx: ctx, store: s, name: name}, nil
	}
	return s.inner.Create(ctx, name)
}

// Delete deletes a blob. Deleting a pointer removes its whole history.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	if !isPointer(name) {
		return s.inner.Delete(ctx, name)
	}

	partition := s.partition(name)
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: partition},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to query DynamoDB: %w", err)
	}
	for _, item := range resp.Items {
		if _, err := s.ddbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"base_uri": item["base_uri"],
				"version":  item["version"],
			},
		}); err != nil {
			return fmt.Errorf("failed to delete pointer version: %w", err)
		}
	}
	return nil
}

// List lists blobs of the wrapped store.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// getLatestVersion queries DynamoDB for the latest committed version.
func (s *DDBCommitStore) getLatestVersion(ctx context.Context, partition string) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: partition},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query DynamoDB: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in DynamoDB")
	}
	targetAttr, ok := item["target"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid target attribute in DynamoDB")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	return version, targetAttr.Value, nil
}

// commitVersion appends the next version for partition.
func (s *DDBCommitStore) commitVersion(ctx context.Context, partition, target string) error {
	current, _, err := s.getLatestVersion(ctx, partition)
	if err != nil {
		return err
	}

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: partition},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(current+1, 10)},
			"target":   &types.AttributeValueMemberS{Value: target},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}
	return nil
}

// pointerBlob serves a resolved pointer from memory.
type pointerBlob struct {
	r *bytes.Reader
}

func (b *pointerBlob) Close() error {
	return nil
}

func (b *pointerBlob) Size() int64 {
	return b.r.Size()
}

func (b *pointerBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return b.r.ReadAt(p, off)
}

func (b *pointerBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= b.r.Size() {
		return nil, io.EOF
	}
	return io.NopCloser(io.NewSectionReader(b.r, off, length)), nil
}

// pointerWritableBlob buffers a pointer and commits it on Close.
type pointerWritableBlob struct {
	ctx   context.Context
	store *DDBCommitStore
	name  string
	buf   bytes.Buffer
	done  bool
}

func (w *pointerWritableBlob) Write(p []byte) (int, error) {
	if w.done {
		return 0, io.ErrClosedPipe
	}
	return w.buf.Write(p)
}

func (w *pointerWritableBlob) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	return w.store.Put(w.ctx, w.name, w.buf.Bytes())
}

func (w *pointerWritableBlob) Abort(context.Context) error {
	w.done = true
	return nil
}

func (w *pointerWritableBlob) Sync() error {
	return nil
}
