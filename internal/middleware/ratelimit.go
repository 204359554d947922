package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter implements a token bucket algorithm
type RateLimiter struct {
	rate       float64
	bucketSize float64
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rate float64, bucketSize float64) *RateLimiter {
	return &RateLimiter{
		rate:       rate,
		bucketSize: bucketSize,
		tokens:     bucketSize,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// refill adds tokens based on elapsed time
func (rl *RateLimiter) refill() {
	now := rl.now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens = min(rl.bucketSize, rl.tokens+(elapsed*rl.rate))
	rl.lastRefill = now
}

// Allow checks if a request should be allowed
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// idleSince reports how long the bucket has gone without a request.
func (rl *RateLimiter) idleSince(now time.Time) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return now.Sub(rl.lastRefill)
}

// KeyedLimiter keeps one bucket per key, e.g. per client address. Keys
// that never call Forget are dropped by the sweeper once idle.
type KeyedLimiter struct {
	rate       float64
	bucketSize float64
	mu         sync.Mutex
	buckets    map[string]*RateLimiter
	now        func() time.Time
	stop       chan struct{}
	once       sync.Once
}

func NewKeyedLimiter(rate, bucketSize float64) *KeyedLimiter {
	return &KeyedLimiter{
		rate:       rate,
		bucketSize: bucketSize,
		buckets:    make(map[string]*RateLimiter),
		now:        time.Now,
		stop:       make(chan struct{}),
	}
}

// StartSweeper drops buckets idle for longer than idle, checking every
// interval until Stop.
func (kl *KeyedLimiter) StartSweeper(interval, idle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				kl.sweep(idle)
			case <-kl.stop:
				return
			}
		}
	}()
}

// Stop ends the sweeper. It is safe to call more than once.
func (kl *KeyedLimiter) Stop() {
	kl.once.Do(func() { close(kl.stop) })
}

func (kl *KeyedLimiter) sweep(idle time.Duration) int {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := kl.now()
	dropped := 0
	for key, rl := range kl.buckets {
		if rl.idleSince(now) > idle {
			delete(kl.buckets, key)
			dropped++
		}
	}
	return dropped
}

// Len counts the live buckets.
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.buckets)
}

func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()
	rl, ok := kl.buckets[key]
	if !ok {
		rl = NewRateLimiter(kl.rate, kl.bucketSize)
		rl.now = kl.now
		rl.lastRefill = kl.now()
		kl.buckets[key] = rl
	}
	kl.mu.Unlock()
	return rl.Allow()
}

// Forget drops the bucket of a key that went away.
func (kl *KeyedLimiter) Forget(key string) {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	delete(kl.buckets, key)
}

// RateLimitMiddleware limits requests per remote host.
func RateLimitMiddleware(limiter *KeyedLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientKey(r)) {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
