package catalog

import "github.com/hupe1980/fieldarray"

// DefaultMaxRetries bounds how often Publish moves to the next version after
// losing a conditional create.
const DefaultMaxRetries = 8

type options struct {
	snapshotOpts []fieldarray.SnapshotOption
	logger       *fieldarray.Logger
	maxRetries   int
}

// Option configures a Catalog.
type Option func(*options)

// WithSnapshotOptions sets the options used to write and read snapshots,
// such as compression or a resource controller.
func WithSnapshotOptions(opts ...fieldarray.SnapshotOption) Option {
	return func(o *options) {
		o.snapshotOpts = append(o.snapshotOpts, opts...)
	}
}

// WithLogger sets the logger for publish and prune events.
func WithLogger(logger *fieldarray.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxRetries sets how many version numbers Publish tries on a
// conditional store. Values below 1 are ignored.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}
