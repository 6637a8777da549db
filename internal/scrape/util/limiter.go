package util

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter hands out one token bucket per hostname, so every board and
// CDN is throttled on its own. A nil *HostLimiter never waits.
type HostLimiter struct {
	mu    sync.Mutex
	hosts map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	hl := &HostLimiter{hosts: make(map[string]*rate.Limiter)}
	hl.limit, hl.burst = bucket(reqPerSec, burst)
	return hl
}

// bucket maps non-positive rates to unlimited and keeps burst >= 1.
func bucket(reqPerSec float64, burst int) (rate.Limit, int) {
	if burst < 1 {
		burst = 1
	}
	if reqPerSec <= 0 {
		return rate.Inf, burst
	}
	return rate.Limit(reqPerSec), burst
}

// SetRate retunes every existing bucket and the ones created later.
func (hl *HostLimiter) SetRate(reqPerSec float64, burst int) {
	if hl == nil {
		return
	}
	l, b := bucket(reqPerSec, burst)

	hl.mu.Lock()
	defer hl.mu.Unlock()
	if l == hl.limit && b == hl.burst {
		return
	}
	hl.limit, hl.burst = l, b
	for _, lim := range hl.hosts {
		lim.SetLimit(l)
		lim.SetBurst(b)
	}
}

func (hl *HostLimiter) limiterFor(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.hosts[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.limit, hl.burst)
	hl.hosts[host] = lim
	return lim
}

// WaitURL blocks until the host of raw may be hit again. Unparseable URLs
// share one bucket.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	if hl == nil {
		return ctx.Err()
	}
	host := "_"
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		host = strings.ToLower(u.Hostname())
	}
	return hl.limiterFor(host).Wait(ctx)
}

// Hosts reports how many distinct hosts have been seen.
func (hl *HostLimiter) Hosts() int {
	if hl == nil {
		return 0
	}
	hl.mu.Lock()
	defer hl.mu.Unlock()
	return len(hl.hosts)
}
