// Package ratelimit provides a token bucket limiter used to throttle
// retrievals.
package ratelimit

import (
	"io"
	"time"
)

// maxChunk bounds a single throttled read so waits stay short.
const maxChunk = 8 * 1024

// Limiter is a token bucket holding at most one second worth of bytes.
// It is used by one transfer at a time and is not safe for concurrent use.
type Limiter struct {
	rate       float64
	tokens     float64
	lastUpdate time.Time

	// sleep is replaced in tests
	sleep func(time.Duration)
	now   func() time.Time
}

// New returns a limiter for bytesPerSecond, or nil (no limit) when the
// rate is not positive.
func New(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	rate := float64(bytesPerSecond)
	return &Limiter{
		rate:       rate,
		tokens:     rate,
		lastUpdate: time.Now(),
		sleep:      time.Sleep,
		now:        time.Now,
	}
}

func (l *Limiter) refill() {
	now := l.now()
	l.tokens += now.Sub(l.lastUpdate).Seconds() * l.rate
	if l.tokens > l.rate {
		l.tokens = l.rate
	}
	l.lastUpdate = now
}

// Wait blocks until n bytes may pass. A nil limiter never blocks.
func (l *Limiter) Wait(n int) {
	if l == nil || n <= 0 {
		return
	}

	l.refill()
	need := float64(n)
	if l.tokens < need {
		l.sleep(time.Duration((need - l.tokens) / l.rate * float64(time.Second)))
		l.refill()
	}

	l.tokens -= need
	if l.tokens < 0 {
		l.tokens = 0
	}
}

type reader struct {
	r       io.Reader
	limiter *Limiter
}

// NewReader wraps r so that reads respect limiter.
// If limiter is nil, r is returned unchanged.
func NewReader(r io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return r
	}
	return &reader{r: r, limiter: limiter}
}

// Read implements io.Reader. Tokens are taken for the bytes actually
// read, after the read, so a throttled read never eats into the
// underlying connection's read deadline.
func (r *reader) Read(p []byte) (int, error) {
	if len(p) > maxChunk {
		p = p[:maxChunk]
	}
	n, err := r.r.Read(p)
	r.limiter.Wait(n)
	return n, err
}
