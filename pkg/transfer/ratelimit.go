package transfer

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// maxBurst bounds a single read so small limits still stream smoothly.
const maxBurst = 32 * 1024

// rateLimitedReader throttles reads to a byte rate.
type rateLimitedReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

// newRateLimitedReader wraps r so that it yields at most kbps KiB per
// second. A non-positive kbps returns r unchanged.
func newRateLimitedReader(ctx context.Context, r io.Reader, kbps int) io.Reader {
	if kbps <= 0 {
		return r
	}
	bytesPerSec := kbps * 1024
	burst := min(bytesPerSec, maxBurst)
	return &rateLimitedReader{
		ctx:     ctx,
		r:       r,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
	}
}

func (l *rateLimitedReader) Read(p []byte) (int, error) {
	if len(p) > l.limiter.Burst() {
		p = p[:l.limiter.Burst()]
	}
	n, err := l.r.Read(p)
	if n > 0 {
		if werr := l.limiter.WaitN(l.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
