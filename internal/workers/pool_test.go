package workers

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	tests := []struct {
		name            string
		numWorkers      int
		expectedWorkers int
	}{
		{"positive workers", 5, 5},
		{"zero workers defaults to 10", 0, 10},
		{"negative workers defaults to 10", -1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedWorkers, NewPool(tt.numWorkers).Size())
		})
	}
}

func TestMap_Empty(t *testing.T) {
	out := Map(NewPool(2), []int(nil), func(_ int, v int) int { return v }, nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestMap_PreservesOrder(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	out := Map(NewPool(4), items, func(idx int, v int) int {
		// Reverse the natural completion order
		time.Sleep(time.Duration(50-v) * 100 * time.Microsecond)
		return v * v
	}, nil)

	require.Len(t, out, 50)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestMap_BoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int64
	items := make([]struct{}, 30)

	Map(NewPool(3), items, func(int, struct{}) bool {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return true
	}, nil)

	assert.LessOrEqual(t, peak.Load(), int64(3))
}

func TestMap_ReportsProgress(t *testing.T) {
	var calls []int
	Map(NewPool(2), []string{"a", "b", "c"}, func(_ int, s string) string { return s }, func(current, total int) {
		assert.Equal(t, 3, total)
		calls = append(calls, current)
	})

	assert.Equal(t, []int{1, 2, 3}, calls)
}
