package resource

import (
	"context"
	"io"
)

// RateLimitedWriter wraps an io.Writer with rate limiting.
type RateLimitedWriter struct {
	w   io.Writer
	rc  *Controller
	ctx context.Context
}

// NewRateLimitedWriter creates a new RateLimitedWriter.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, rc *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{
		w:   w,
		rc:  rc,
		ctx: ctx,
	}
}

// Write forwards p in chunks no larger than the limiter burst.
func (w *RateLimitedWriter) Write(p []byte) (int, error) {
	chunk := w.rc.ioChunk()
	if chunk == 0 {
		return w.w.Write(p)
	}

	var written int
	for len(p) > 0 {
		n := min(len(p), chunk)
		if err := w.rc.AcquireIO(w.ctx, n); err != nil {
			return written, err
		}
		m, err := w.w.Write(p[:n])
		written += m
		if err != nil {
			return written, err
		}
		p = p[n:]
	}
	return written, nil
}

// RateLimitedReader wraps an io.Reader with rate limiting.
type RateLimitedReader struct {
	r   io.Reader
	rc  *Controller
	ctx context.Context
}

// NewRateLimitedReader creates a new RateLimitedReader.
func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{
		r:   r,
		rc:  rc,
		ctx: ctx,
	}
}

// Read waits for len(p) bytes of budget (capped at the burst) before reading.
// Unused budget is not returned.
func (r *RateLimitedReader) Read(p []byte) (int, error) {
	if chunk := r.rc.ioChunk(); chunk > 0 && len(p) > chunk {
		p = p[:chunk]
	}
	if err := r.rc.AcquireIO(r.ctx, len(p)); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
