package catalog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fieldarray"
	"github.com/hupe1980/fieldarray/blobstore"
	"github.com/hupe1980/fieldarray/blobstore/s3"
	"github.com/hupe1980/fieldarray/blobstore/sqlite"
)

func newArray(t *testing.T, value int) *fieldarray.FieldArray {
	t.Helper()
	fa, err := fieldarray.New(4)
	require.NoError(t, err)
	require.NoError(t, fa.SetRange(10, 20, value))
	return fa
}

func testStores(t *testing.T) map[string]blobstore.Store {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]blobstore.Store{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
		"sqlite": db,
	}
}

func TestPublishLatest(t *testing.T) {
	ctx := context.Background()

	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			c := New(store, WithSnapshotOptions(fieldarray.WithCompression(fieldarray.CompressionLZ4)))

			_, _, err := c.Latest(ctx, "users")
			require.ErrorIs(t, err, ErrNoVersion)

			for i := 1; i <= 3; i++ {
				v, err := c.Publish(ctx, "users", newArray(t, i))
				require.NoError(t, err)
				assert.Equal(t, Version(i), v)
			}

			fa, v, err := c.Latest(ctx, "users")
			require.NoError(t, err)
			assert.Equal(t, Version(3), v)
			assert.True(t, newArray(t, 3).Equal(fa))

			old, err := c.Load(ctx, "users", 1)
			require.NoError(t, err)
			assert.True(t, newArray(t, 1).Equal(old))

			versions, err := c.Versions(ctx, "users")
			require.NoError(t, err)
			assert.Equal(t, []Version{1, 2, 3}, versions)
		})
	}
}

func TestNamespaces(t *testing.T) {
	ctx := context.Background()
	c := New(blobstore.NewMemoryStore())

	_, err := c.Publish(ctx, "users", newArray(t, 1))
	require.NoError(t, err)
	_, err = c.Publish(ctx, "users/archive", newArray(t, 2))
	require.NoError(t, err)
	_, err = c.Publish(ctx, "users/archive", newArray(t, 3))
	require.NoError(t, err)

	versions, err := c.Versions(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []Version{1}, versions, "nested names are separate arrays")

	cur, err := c.Current(ctx, "users/archive")
	require.NoError(t, err)
	assert.Equal(t, Version(2), cur)
}

func TestInvalidNames(t *testing.T) {
	ctx := context.Background()
	c := New(blobstore.NewMemoryStore())

	for _, name := range []string{"", "users/"} {
		_, err := c.Publish(ctx, name, newArray(t, 1))
		assert.ErrorIs(t, err, ErrInvalidName)
		_, _, err = c.Latest(ctx, name)
		assert.ErrorIs(t, err, ErrInvalidName)
		_, err = c.Versions(ctx, name)
		assert.ErrorIs(t, err, ErrInvalidName)
		_, err = c.Prune(ctx, name, 1)
		assert.ErrorIs(t, err, ErrInvalidName)
	}
}

func TestVersionsIgnoresForeignBlobs(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	c := New(store)

	_, err := c.Publish(ctx, "users", newArray(t, 1))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "users/notes.txt", []byte("x")))
	require.NoError(t, store.Put(ctx, "users/000000.snap", []byte("x")))
	require.NoError(t, store.Put(ctx, "users/abc.snap", []byte("x")))

	versions, err := c.Versions(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []Version{1}, versions)
}

func TestCorruptPointer(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	c := New(store)

	require.NoError(t, store.Put(ctx, "users/CURRENT", []byte("garbage")))
	_, _, err := c.Latest(ctx, "users")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoVersion)
}

// racingStore hands the first claimed name to another publisher.
type racingStore struct {
	*blobstore.MemoryStore
	once sync.Once
}

func (s *racingStore) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	s.once.Do(func() {
		_ = s.MemoryStore.PutIfNotExists(ctx, name, []byte("theirs"))
	})
	return s.MemoryStore.PutIfNotExists(ctx, name, data)
}

func TestPublish_ConditionalRetry(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{MemoryStore: blobstore.NewMemoryStore()}
	c := New(store)

	v, err := c.Publish(ctx, "users", newArray(t, 5))
	require.NoError(t, err)
	assert.Equal(t, Version(2), v, "lost version 1 to another publisher")

	fa, cur, err := c.Latest(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, Version(2), cur)
	assert.True(t, newArray(t, 5).Equal(fa))

	// The other publisher's blob was not overwritten.
	blob, err := store.Open(ctx, "users/000001.snap")
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(len("theirs")), blob.Size())
}

// takenStore refuses every conditional create.
type takenStore struct {
	*blobstore.MemoryStore
}

func (s takenStore) PutIfNotExists(context.Context, string, []byte) error {
	return blobstore.ErrExists
}

func TestPublish_RetriesExhausted(t *testing.T) {
	ctx := context.Background()
	store := takenStore{blobstore.NewMemoryStore()}
	c := New(store, WithMaxRetries(3))

	_, err := c.Publish(ctx, "users", newArray(t, 1))
	require.ErrorIs(t, err, ErrRetriesExhausted)

	_, err = c.Current(ctx, "users")
	assert.ErrorIs(t, err, ErrNoVersion, "pointer untouched")
}

func TestPublish_PointerOnlyMovesForward(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	c := New(store)

	// Another publisher already made version 5 current.
	require.NoError(t, store.Put(ctx, "users/CURRENT", []byte("000005.snap")))

	v, err := c.Publish(ctx, "users", newArray(t, 1))
	require.NoError(t, err)
	assert.Equal(t, Version(1), v)

	cur, err := c.Current(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, Version(5), cur)
}

func TestPublish_SaveFailure(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	c := New(store, WithSnapshotOptions(fieldarray.WithCompression(fieldarray.Compression(99))))

	_, err := c.Publish(ctx, "users", newArray(t, 1))
	require.ErrorIs(t, err, fieldarray.ErrInvalidArgument)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	c := New(store)

	for i := 1; i <= 5; i++ {
		_, err := c.Publish(ctx, "users", newArray(t, i))
		require.NoError(t, err)
	}

	_, err := c.Prune(ctx, "users", 0)
	require.Error(t, err)

	deleted, err := c.Prune(ctx, "users", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	versions, err := c.Versions(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []Version{4, 5}, versions)

	deleted, err = c.Prune(ctx, "users", 2)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	// The current version survives even when it is not among the newest.
	require.NoError(t, store.Put(ctx, "users/CURRENT", []byte("000004.snap")))
	_, err = c.Publish(ctx, "users", newArray(t, 6))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "users/CURRENT", []byte("000004.snap")))

	deleted, err = c.Prune(ctx, "users", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	versions, err = c.Versions(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []Version{4, 6}, versions)
}

func TestLogging(t *testing.T) {
	ctx := context.Background()

	var logs bytes.Buffer
	logger := fieldarray.NewLogger(slog.NewJSONHandler(&logs, nil))
	c := New(blobstore.NewMemoryStore(), WithLogger(logger))

	_, err := c.Publish(ctx, "users", newArray(t, 1))
	require.NoError(t, err)
	assert.Contains(t, logs.String(), `"msg":"version published"`)
	assert.Contains(t, logs.String(), `"version":1`)
}

func TestVersionParsing(t *testing.T) {
	tests := []struct {
		base string
		want Version
		ok   bool
	}{
		{"000001.snap", 1, true},
		{"1234567.snap", 1234567, true},
		{"000000.snap", 0, false},
		{".snap", 0, false},
		{"000001.tmp", 0, false},
		{"-1.snap", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseVersion(tt.base)
		assert.Equal(t, tt.ok, ok, tt.base)
		assert.Equal(t, tt.want, got, tt.base)
	}
	assert.Equal(t, "000042", Version(42).String())
}

// fakeDDB keeps commit items in memory. beforePut runs ahead of the
// condition check and can simulate a competing writer.
type fakeDDB struct {
	mu        sync.Mutex
	items     map[string]map[string]types.AttributeValue
	beforePut func(f *fakeDDB, partition string, version uint64)
}

func newFakeDDB() *fakeDDB {
	return &fakeDDB{items: make(map[string]map[string]types.AttributeValue)}
}

func ddbKey(partition string, version uint64) string {
	return partition + "#" + strconv.FormatUint(version, 10)
}

func (f *fakeDDB) insert(partition string, version uint64, target string) {
	f.items[ddbKey(partition, version)] = map[string]types.AttributeValue{
		"base_uri": &types.AttributeValueMemberS{Value: partition},
		"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
		"target":   &types.AttributeValueMemberS{Value: target},
	}
}

func (f *fakeDDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	partition := in.Item["base_uri"].(*types.AttributeValueMemberS).Value
	version, _ := strconv.ParseUint(in.Item["version"].(*types.AttributeValueMemberN).Value, 10, 64)
	if f.beforePut != nil {
		f.beforePut(f, partition, version)
	}
	if _, ok := f.items[ddbKey(partition, version)]; ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	}
	f.items[ddbKey(partition, version)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	partition := in.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value
	var items []map[string]types.AttributeValue
	for _, item := range f.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value == partition {
			items = append(items, item)
		}
	}
	version := func(item map[string]types.AttributeValue) uint64 {
		v, _ := strconv.ParseUint(item["version"].(*types.AttributeValueMemberN).Value, 10, 64)
		return v
	}
	sort.Slice(items, func(i, j int) bool { return version(items[i]) > version(items[j]) })
	if in.Limit != nil && int(*in.Limit) < len(items) {
		items = items[:*in.Limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeDDB) GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return nil, errors.New("not used")
}

func (f *fakeDDB) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	partition := in.Key["base_uri"].(*types.AttributeValueMemberS).Value
	version, _ := strconv.ParseUint(in.Key["version"].(*types.AttributeValueMemberN).Value, 10, 64)
	delete(f.items, ddbKey(partition, version))
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestPublish_DDBCommitStore(t *testing.T) {
	ctx := context.Background()
	ddb := newFakeDDB()
	inner := blobstore.NewMemoryStore()
	c := New(s3.NewDDBCommitStore(inner, ddb, "commits", "s3://bucket/arrays"))

	v, err := c.Publish(ctx, "users", newArray(t, 1))
	require.NoError(t, err)
	assert.Equal(t, Version(1), v)

	fa, cur, err := c.Latest(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, Version(1), cur)
	assert.True(t, newArray(t, 1).Equal(fa))

	// The pointer lives in DynamoDB, not in the wrapped store.
	_, err = inner.Open(ctx, "users/CURRENT")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	// Another publisher commits the pointer first.
	ddb.beforePut = func(f *fakeDDB, partition string, version uint64) {
		f.insert(partition, version, "000002.snap")
		f.beforePut = nil
	}
	_, err = c.Publish(ctx, "users", newArray(t, 2))
	require.ErrorIs(t, err, s3.ErrConcurrentModification)

	cur, err = c.Current(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, Version(2), cur)
}
