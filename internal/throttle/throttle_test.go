package throttle

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoRateDelay(t *testing.T) {
	tests := []struct {
		name      string
		snapshot  Snapshot
		threshold int
		assertion func(*testing.T, time.Duration)
	}{
		{
			name:      "no data yet means no delay",
			snapshot:  Snapshot{},
			threshold: 10,
			assertion: func(t *testing.T, d time.Duration) { assert.Zero(t, d) },
		},
		{
			name: "remaining above threshold and hits below 3 means no delay",
			snapshot: Snapshot{
				HasData:         true,
				LastRemaining:   50,
				ConsecutiveHits: 1,
			},
			threshold: 10,
			assertion: func(t *testing.T, d time.Duration) { assert.Zero(t, d) },
		},
		{
			name: "remaining at or below threshold sleeps until reset plus safety margin",
			snapshot: Snapshot{
				HasData:        true,
				LastRemaining:  5,
				LastResetEpoch: time.Now().Add(10 * time.Second),
			},
			threshold: 10,
			assertion: func(t *testing.T, d time.Duration) {
				assert.Greater(t, d, 10*time.Second)
				assert.LessOrEqual(t, d, 13*time.Second)
			},
		},
		{
			name: "three consecutive hits sleeps a jittered interval",
			snapshot: Snapshot{
				HasData:         true,
				LastRemaining:   50,
				ConsecutiveHits: 3,
			},
			threshold: 10,
			assertion: func(t *testing.T, d time.Duration) {
				assert.GreaterOrEqual(t, d, jitterMin)
				assert.LessOrEqual(t, d, jitterMax)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AutoRate{}.Delay(tt.snapshot, tt.threshold)
			tt.assertion(t, got)
		})
	}
}

func TestPreFixedAndNoThrottle(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, PreFixed{Delay_: 250 * time.Millisecond}.Delay(Snapshot{}, 10))
	assert.Zero(t, NoThrottle{}.Delay(Snapshot{HasData: true, LastRemaining: 0}, 10))
}

func TestRandomWithinBounds(t *testing.T) {
	for i := 0; i < 20; i++ {
		d := Random{Min: time.Second, Max: 2 * time.Second}.Delay(Snapshot{}, 10)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 2*time.Second)
	}
}

func TestDynamicFixedScalesWithUsage(t *testing.T) {
	d := DynamicFixed{Unit: time.Second}.Delay(Snapshot{HasData: true, LastLimit: 100, LastRemaining: 50}, 10)
	assert.Equal(t, 500*time.Millisecond, d)

	assert.Zero(t, DynamicFixed{}.Delay(Snapshot{}, 10))
}

func TestGovernorUpdateFromHeadersAcceptsBothFamilies(t *testing.T) {
	g := NewGovernor(10)

	g.UpdateFromHeaders(http.Header{"X-Ratelimit-Remaining": []string{"3"}, "X-Ratelimit-Limit": []string{"60"}})
	snap := g.Snapshot()
	assert.Equal(t, 3, snap.LastRemaining)
	assert.Equal(t, 60, snap.LastLimit)
	assert.True(t, g.RateLimited())

	g2 := NewGovernor(10)
	g2.UpdateFromHeaders(http.Header{"Ratelimit-Remaining": []string{"100"}})
	assert.False(t, g2.RateLimited())
}

func TestGovernorUpdateFromHeadersIgnoresUnrelatedHeaders(t *testing.T) {
	g := NewGovernor(10)
	g.UpdateFromHeaders(http.Header{"Content-Type": []string{"application/json"}})

	snap := g.Snapshot()
	assert.False(t, snap.HasData)
}

func TestGovernorWaitRespectsContextCancellation(t *testing.T) {
	g := NewGovernor(10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.Wait(ctx, PreFixed{Delay_: time.Hour})
	require.Error(t, err)
}

func TestGovernorWaitNoDelay(t *testing.T) {
	g := NewGovernor(10)

	err := g.Wait(context.Background(), NoThrottle{})
	require.NoError(t, err)
}

func TestGovernorConsecutiveHitsIncrementAcrossWaitCalls(t *testing.T) {
	g := NewGovernor(10)
	g.snapshot = Snapshot{HasData: true, LastRemaining: 50}

	for i := 0; i < consecutiveHitsThreshold-1; i++ {
		require.NoError(t, g.Wait(context.Background(), AutoRate{}))
	}

	assert.Equal(t, consecutiveHitsThreshold-1, g.Snapshot().ConsecutiveHits)
}
