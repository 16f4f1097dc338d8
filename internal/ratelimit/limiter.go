package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

const (
	defaultMaxCalls = 10
	defaultWindow   = time.Minute
)

// Limiter admits requests per client fingerprint using a sliding window
// of server-observed timestamps. Each protected operation owns its own
// Limiter, so budgets on different operations are independent.
type Limiter struct {
	maxCalls int
	window   time.Duration

	mu      sync.RWMutex
	windows map[string]*clientWindow
}

// clientWindow serializes the check-then-append sequence for a single
// fingerprint. Windows for distinct fingerprints never share a lock.
type clientWindow struct {
	mu   sync.Mutex
	hits []time.Time
}

func NewLimiter(maxCalls int, window time.Duration) *Limiter {
	if maxCalls <= 0 {
		maxCalls = defaultMaxCalls
	}
	if window <= 0 {
		window = defaultWindow
	}

	return &Limiter{
		maxCalls: maxCalls,
		window:   window,
		windows:  make(map[string]*clientWindow),
	}
}

// Fingerprint hashes a client network address so the limiter never keeps
// raw addresses as map keys.
func Fingerprint(addr string) string {
	sum := sha256.Sum256([]byte(addr))
	return hex.EncodeToString(sum[:])
}

// Admit reports whether a request from the fingerprint may proceed at the
// given instant. When rejected it returns how long the client must wait
// before the oldest admitted request leaves the window.
func (l *Limiter) Admit(fingerprint string, now time.Time) (bool, time.Duration) {
	cw := l.windowFor(fingerprint)
	threshold := now.Add(-l.window)

	cw.mu.Lock()
	defer cw.mu.Unlock()

	kept := cw.hits[:0]
	for _, hit := range cw.hits {
		if hit.After(threshold) {
			kept = append(kept, hit)
		}
	}
	cw.hits = kept

	if len(cw.hits) >= l.maxCalls {
		retryAfter := cw.hits[0].Add(l.window).Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return false, retryAfter
	}

	cw.hits = append(cw.hits, now)
	return true, 0
}

func (l *Limiter) windowFor(fingerprint string) *clientWindow {
	l.mu.RLock()
	cw, ok := l.windows[fingerprint]
	l.mu.RUnlock()
	if ok {
		return cw
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if cw, ok = l.windows[fingerprint]; ok {
		return cw
	}
	cw = &clientWindow{}
	l.windows[fingerprint] = cw
	return cw
}

// Prune drops fingerprints whose last admitted request fell out of the
// window, bounding memory for clients that never return. Returns the
// number of windows removed.
func (l *Limiter) Prune(now time.Time) int {
	threshold := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	pruned := 0
	for fingerprint, cw := range l.windows {
		if !cw.mu.TryLock() {
			continue
		}
		stale := len(cw.hits) == 0 || cw.hits[len(cw.hits)-1].Before(threshold)
		cw.mu.Unlock()
		if stale {
			delete(l.windows, fingerprint)
			pruned++
		}
	}

	return pruned
}

// Size returns the number of tracked fingerprints.
func (l *Limiter) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}

// StartSweeper prunes the limiter at the given interval until the returned
// stop function is called.
func (l *Limiter) StartSweeper(interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = l.window
	}

	done := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				l.Prune(now.UTC())
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
