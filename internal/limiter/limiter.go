package limiter

import (
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"golang.org/x/time/rate"
)

// Pacer enforces a minimum delay between operations per key. The crawler
// uses one key per vendor so distinct vendors are not throttled against
// each other. Safe for concurrent use.
type Pacer struct {
	mu       sync.Mutex
	limiters map[string]ratelimit.Limiter
}

func NewPacer() *Pacer {
	return &Pacer{limiters: make(map[string]ratelimit.Limiter)}
}

// Take blocks until the key's minimum delay since the previous Take has
// elapsed. The delay is fixed on first use of a key.
func (p *Pacer) Take(key string, minDelay time.Duration) {
	p.mu.Lock()
	rl, ok := p.limiters[key]
	if !ok {
		if minDelay <= 0 {
			minDelay = time.Millisecond
		}
		rl = ratelimit.New(1, ratelimit.Per(minDelay))
		p.limiters[key] = rl
	}
	p.mu.Unlock()

	rl.Take()
}

// Keyed is a per-key token bucket, used by the API surface to limit
// request rates per caller. Safe for concurrent use.
type Keyed struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewKeyed(perMinute int, burst int) *Keyed {
	return &Keyed{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

// Allow reports whether the key may proceed now.
func (k *Keyed) Allow(key string) bool {
	k.mu.Lock()
	rl, ok := k.limiters[key]
	if !ok {
		rl = rate.NewLimiter(k.limit, k.burst)
		k.limiters[key] = rl
	}
	k.mu.Unlock()

	return rl.Allow()
}
