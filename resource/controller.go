package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimit is returned by ReserveMemory when a reservation would
// exceed the configured hard limit.
var ErrMemoryLimit = errors.New("resource: memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for decoded snapshot buffers.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxWorkers bounds how many planes are encoded concurrently.
	// If 0, defaults to 1.
	MaxWorkers int64

	// IOLimitBytesPerSec is the maximum snapshot I/O throughput.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages memory, worker and I/O budgets shared by snapshot
// readers and writers. A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Concurrency
	workerSem *semaphore.Weighted

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	c := &Controller{
		cfg:       cfg,
		workerSem: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the effective limits.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{MaxWorkers: 1}
	}
	return c.cfg
}

// AcquireMemory attempts to reserve memory.
// If a hard limit is configured and usage would exceed it,
// this blocks until memory is available or ctx is canceled.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if bytes > c.cfg.MemoryLimitBytes {
			return ErrMemoryLimit
		}
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory attempts to reserve memory without blocking.
// Returns true if acquired, false if limit would be exceeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil {
		return true
	}
	if bytes <= 0 {
		return true
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return false
		}
	}

	c.memUsed.Add(bytes)
	return true
}

// ReserveMemory is TryAcquireMemory reporting ErrMemoryLimit on refusal.
func (c *Controller) ReserveMemory(bytes int64) error {
	if !c.TryAcquireMemory(bytes) {
		return ErrMemoryLimit
	}
	return nil
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil {
		return
	}
	if bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// Workers returns the maximum number of concurrent plane encoders.
func (c *Controller) Workers() int {
	if c == nil {
		return 1
	}
	return int(c.cfg.MaxWorkers)
}

// AcquireWorker reserves a worker slot, blocking if all slots are busy.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.workerSem.Acquire(ctx, 1)
}

// TryAcquireWorker attempts to reserve a worker slot without blocking.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}
	return c.workerSem.TryAcquire(1)
}

// ReleaseWorker releases a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workerSem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than one second of budget are split into burst-sized waits.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// ioChunk returns the largest single transfer the limiter admits at once,
// or 0 when I/O is unlimited.
func (c *Controller) ioChunk() int {
	if c == nil || c.ioLimiter == nil {
		return 0
	}
	return c.ioLimiter.Burst()
}
