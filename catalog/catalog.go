package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/fieldarray"
	"github.com/hupe1980/fieldarray/blobstore"
)

// PointerName is the base name of the blob naming the current version.
// s3.DDBCommitStore recognizes the same name.
const PointerName = "CURRENT"

var (
	// ErrNoVersion is returned by Latest when nothing was published yet.
	ErrNoVersion = errors.New("catalog: no published version")

	// ErrInvalidName is returned for empty names and names ending in "/".
	ErrInvalidName = errors.New("catalog: invalid name")

	// ErrRetriesExhausted is returned when every version Publish tried was
	// taken by another publisher.
	ErrRetriesExhausted = errors.New("catalog: retries exhausted")
)

// Catalog publishes and resolves versioned snapshots on a blob store.
type Catalog struct {
	store blobstore.Store
	opts  options
	mu    sync.Mutex
}

// New creates a catalog over store.
func New(store blobstore.Store, optFns ...Option) *Catalog {
	o := options{maxRetries: DefaultMaxRetries}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = fieldarray.NoopLogger()
	}
	return &Catalog{store: store, opts: o}
}

func validateName(name string) error {
	if name == "" || strings.HasSuffix(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func blobName(name string, v Version) string {
	return name + "/" + v.fileName()
}

func pointerName(name string) string {
	return name + "/" + PointerName
}

// Publish writes fa as the next version of name and points CURRENT at it.
//
// The pointer is only moved forward: if another publisher already made a
// newer version current, the new version is kept but CURRENT is left alone.
func (c *Catalog) Publish(ctx context.Context, name string, fa *fieldarray.FieldArray) (Version, error) {
	v, err := c.publish(ctx, name, fa)
	c.opts.logger.LogPublish(ctx, name, uint64(v), err)
	return v, err
}

func (c *Catalog) publish(ctx context.Context, name string, fa *fieldarray.FieldArray) (Version, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	versions, err := c.versions(ctx, name)
	if err != nil {
		return 0, err
	}
	next := Version(1)
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}

	target := c.store
	cs, conditional := c.store.(blobstore.ConditionalStore)
	if conditional {
		target = claimStore{cs}
	}

	claimed := false
	for attempt := 0; attempt < c.opts.maxRetries; attempt++ {
		err := fieldarray.Save(ctx, target, blobName(name, next), fa, c.opts.snapshotOpts...)
		if err == nil {
			claimed = true
			break
		}
		if conditional && errors.Is(err, blobstore.ErrExists) {
			next++
			continue
		}
		return 0, err
	}
	if !claimed {
		return 0, fmt.Errorf("%w: %s after %d attempts", ErrRetriesExhausted, name, c.opts.maxRetries)
	}

	current, err := c.current(ctx, name)
	if err != nil && !errors.Is(err, ErrNoVersion) {
		return next, err
	}
	if current >= next {
		return next, nil
	}
	if err := c.store.Put(ctx, pointerName(name), []byte(next.fileName())); err != nil {
		return next, fmt.Errorf("catalog: update %s: %w", pointerName(name), err)
	}
	return next, nil
}

// Current returns the version CURRENT points at.
func (c *Catalog) Current(ctx context.Context, name string) (Version, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}
	return c.current(ctx, name)
}

func (c *Catalog) current(ctx context.Context, name string) (Version, error) {
	blob, err := c.store.Open(ctx, pointerName(name))
	if errors.Is(err, blobstore.ErrNotFound) {
		return 0, fmt.Errorf("%w: %s", ErrNoVersion, name)
	}
	if err != nil {
		return 0, fmt.Errorf("catalog: open %s: %w", pointerName(name), err)
	}
	defer blob.Close()

	r, err := blobstore.NewReader(ctx, blob)
	if err != nil {
		return 0, fmt.Errorf("catalog: read %s: %w", pointerName(name), err)
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("catalog: read %s: %w", pointerName(name), err)
	}
	v, ok := parseVersion(strings.TrimSpace(string(content)))
	if !ok {
		return 0, fmt.Errorf("catalog: %s holds invalid target %q", pointerName(name), content)
	}
	return v, nil
}

// Latest loads the version CURRENT points at.
func (c *Catalog) Latest(ctx context.Context, name string) (*fieldarray.FieldArray, Version, error) {
	v, err := c.Current(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	fa, err := c.Load(ctx, name, v)
	if err != nil {
		return nil, v, err
	}
	return fa, v, nil
}

// Load loads a specific version.
func (c *Catalog) Load(ctx context.Context, name string, v Version) (*fieldarray.FieldArray, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return fieldarray.Load(ctx, c.store, blobName(name, v), c.opts.snapshotOpts...)
}

// Versions returns the published versions of name in ascending order.
// Blobs under name that are not version snapshots are ignored.
func (c *Catalog) Versions(ctx context.Context, name string) ([]Version, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return c.versions(ctx, name)
}

func (c *Catalog) versions(ctx context.Context, name string) ([]Version, error) {
	prefix := name + "/"
	names, err := c.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("catalog: list %s: %w", prefix, err)
	}

	var versions []Version
	for _, n := range names {
		base := strings.TrimPrefix(n, prefix)
		if strings.Contains(base, "/") {
			continue
		}
		if v, ok := parseVersion(base); ok {
			versions = append(versions, v)
		}
	}
	slices.Sort(versions)
	return versions, nil
}

// Prune deletes all but the newest keep versions of name and returns how
// many were deleted. The current version is never deleted.
func (c *Catalog) Prune(ctx context.Context, name string, keep int) (int, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}
	if keep < 1 {
		return 0, fmt.Errorf("catalog: keep must be at least 1, got %d", keep)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	versions, err := c.versions(ctx, name)
	if err != nil {
		return 0, err
	}
	current, err := c.current(ctx, name)
	if err != nil && !errors.Is(err, ErrNoVersion) {
		return 0, err
	}

	deleted := 0
	for _, v := range versions[:max(len(versions)-keep, 0)] {
		if v == current {
			continue
		}
		if err := c.store.Delete(ctx, blobName(name, v)); err != nil {
			return deleted, fmt.Errorf("catalog: delete %s: %w", blobName(name, v), err)
		}
		deleted++
	}
	if deleted > 0 {
		c.opts.logger.InfoContext(ctx, "versions pruned", "name", name, "deleted", deleted)
	}
	return deleted, nil
}
