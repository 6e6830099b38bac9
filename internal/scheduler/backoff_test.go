package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollBackoffDoublesUntilCap(t *testing.T) {
	base := 100 * time.Millisecond
	cap := 2 * time.Second

	for _, empty := range []int{0, 1, 2, 3, 10} {
		d := pollBackoff(base, cap, empty)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, cap+cap/5, "jitter must not push past cap+20%%")
	}
}

func TestPollBackoffZeroEmptyStaysNearBase(t *testing.T) {
	base := 200 * time.Millisecond
	d := pollBackoff(base, time.Minute, 0)
	assert.InDelta(t, float64(base), float64(d), float64(base)/5+1)
}

func TestRetryBackoffCapsAtOneHour(t *testing.T) {
	d := retryBackoff(100)
	assert.LessOrEqual(t, d, time.Hour+time.Hour/5)
}

func TestRetryBackoffGrowsWithRetryCount(t *testing.T) {
	small := retryBackoff(0)
	large := retryBackoff(5)
	// jitter is +/-20%; retry 5 (base*32, at least 768s after jitter) must
	// still clear the worst-case jittered retry 0 (base*1.2 = 36s at most)
	// by a wide margin.
	assert.Greater(t, large, small*10)
}

func TestJitterNeverNegative(t *testing.T) {
	for i := 0; i < 50; i++ {
		assert.GreaterOrEqual(t, jitter(time.Second), time.Duration(0))
	}
}

func TestJitterZeroDurationStaysZero(t *testing.T) {
	assert.Equal(t, time.Duration(0), jitter(0))
}

func TestJitterWithinTwentyPercent(t *testing.T) {
	d := 10 * time.Second
	for i := 0; i < 100; i++ {
		got := jitter(d)
		assert.InDelta(t, float64(d), float64(got), float64(d)/5+1)
	}
}
