// Package throttle implements gitar's adaptive rate-limit governor
// (spec.md §4.4, C4), grounded directly on the original gitar's
// http/throttle.rs `ThrottleStrategy` trait (PreFixed, Random, DynamicFixed,
// NoThrottle variants) translated into a Go interface, with the spec's
// 3-step decision procedure layered on top as the default strategy.
package throttle

import (
	"context"
	"crypto/rand"
	"math/big"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	consecutiveHitsThreshold = 3
	safetyMargin             = 2 * time.Second
	jitterMin                = 1 * time.Second
	jitterMax                = 5 * time.Second
)

// Strategy decides the pre-request delay given the current snapshot and the
// configured threshold. Implementations mirror the original gitar's
// ThrottleStrategy variants.
type Strategy interface {
	Delay(snapshot Snapshot, threshold int) time.Duration
}

// Snapshot is the per-domain rate-limit state tracked by a Governor
// (spec.md §4.4).
type Snapshot struct {
	LastRemaining   int
	LastLimit       int
	LastResetEpoch  time.Time
	ConsecutiveHits int
	HasData         bool
}

// AutoRate implements the spec's default 3-step decision procedure.
type AutoRate struct{}

func (AutoRate) Delay(s Snapshot, threshold int) time.Duration {
	if !s.HasData {
		return 0
	}

	if s.LastRemaining <= threshold {
		wait := time.Until(s.LastResetEpoch) + safetyMargin
		if wait < 0 {
			wait = safetyMargin
		}

		return wait
	}

	if s.ConsecutiveHits >= consecutiveHitsThreshold {
		return jitteredBetween(jitterMin, jitterMax)
	}

	return 0
}

// NoThrottle never introduces a delay, grounded on the original gitar's
// NoThrottle variant. No CLI flag or config setting selects it.
type NoThrottle struct{}

func (NoThrottle) Delay(Snapshot, int) time.Duration { return 0 }

// PreFixed always sleeps a fixed delay, grounded on the original gitar's
// PreFixed variant; selected by the CLI's `--throttle MS` override.
type PreFixed struct {
	Delay_ time.Duration
}

func (p PreFixed) Delay(Snapshot, int) time.Duration { return p.Delay_ }

// Random sleeps a uniformly random delay in [Min, Max], grounded on the
// original gitar's Random variant; selected by `--throttle-range LO-HI`.
type Random struct {
	Min, Max time.Duration
}

func (r Random) Delay(Snapshot, int) time.Duration {
	return jitteredBetween(r.Min, r.Max)
}

// DynamicFixed sleeps a delay proportional to how close the snapshot is to
// exhausting its quota, without AutoRate's reset-epoch precision. Grounded
// on the original gitar's DynamicFixed variant. No CLI flag or config
// setting selects it.
type DynamicFixed struct {
	Unit time.Duration
}

func (d DynamicFixed) Delay(s Snapshot, threshold int) time.Duration {
	if !s.HasData || s.LastLimit <= 0 {
		return 0
	}

	used := s.LastLimit - s.LastRemaining
	if used <= 0 {
		return 0
	}

	unit := d.Unit
	if unit <= 0 {
		unit = 100 * time.Millisecond
	}

	return time.Duration(used) * unit / time.Duration(s.LastLimit)
}

func jitteredBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}

	span := int64(max - min)
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return min
	}

	return min + time.Duration(n.Int64())
}

// Governor owns the per-domain rate-limit snapshot, guarded by a single
// mutex never held across I/O (spec.md §5).
type Governor struct {
	mu        sync.Mutex
	threshold int
	snapshot  Snapshot
}

// NewGovernor returns a Governor for one domain, configured with its
// rate_limit_remaining_threshold (spec.md §3).
func NewGovernor(threshold int) *Governor {
	return &Governor{threshold: threshold}
}

// Wait computes the pre-request delay under strategy and sleeps for it,
// returning early if ctx is cancelled (spec.md §4.5 step 5).
func (g *Governor) Wait(ctx context.Context, strategy Strategy) error {
	g.mu.Lock()
	snapshot := g.snapshot
	snapshot.ConsecutiveHits++
	g.snapshot.ConsecutiveHits = snapshot.ConsecutiveHits
	g.mu.Unlock()

	delay := strategy.Delay(snapshot, g.threshold)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateFromHeaders refreshes the snapshot from a response's rate-limit
// headers, accepting both the `RateLimit-*` and `X-RateLimit-*` families
// (spec.md §4.4, §6). Missing headers leave the snapshot unchanged.
func (g *Governor) UpdateFromHeaders(h http.Header) {
	remaining, hasRemaining := firstIntHeader(h, "RateLimit-Remaining", "X-RateLimit-Remaining")
	limit, hasLimit := firstIntHeader(h, "RateLimit-Limit", "X-RateLimit-Limit")
	reset, hasReset := firstIntHeader(h, "RateLimit-Reset", "X-RateLimit-Reset")

	if !hasRemaining && !hasLimit && !hasReset {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.snapshot.HasData = true
	g.snapshot.ConsecutiveHits = 0

	if hasRemaining {
		g.snapshot.LastRemaining = remaining
	}
	if hasLimit {
		g.snapshot.LastLimit = limit
	}
	if hasReset {
		g.snapshot.LastResetEpoch = time.Unix(int64(reset), 0)
	}
}

// RateLimited reports whether the current snapshot is at or below the
// configured threshold — the signal the paginator uses to abort a
// multi-page fetch instead of issuing another request (spec.md §4.4, §4.6).
func (g *Governor) RateLimited() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.snapshot.HasData && g.snapshot.LastRemaining <= g.threshold
}

// Snapshot returns a copy of the current rate-limit state, for inspection
// by the `rl` CLI verb.
func (g *Governor) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.snapshot
}

func firstIntHeader(h http.Header, names ...string) (int, bool) {
	for _, name := range names {
		v := h.Get(name)
		if v == "" {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}

		return n, true
	}

	return 0, false
}
