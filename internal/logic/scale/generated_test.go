package scale

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_GeneratesOnce(t *testing.T) {
	gs, err := New(newCScale(250), Options{})
	require.NoError(t, err)

	assert.Equal(t, "C", gs.Name())
	assert.Equal(t, 321, gs.Len())
	assert.Equal(t, DefaultOptions(), gs.Options())
	assert.Equal(t, 1.0, gs.Tick(0).Value)
	assert.InDelta(t, math.Log10(2), gs.NormalizedPosition(2), epsilon)
	assert.InDelta(t, math.Sqrt(10), gs.Value(0.5), epsilon)
}

func TestNew_PropagatesErrors(t *testing.T) {
	_, err := New(newCScale(250), Options{MaxCandidates: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyCandidates)
	assert.Contains(t, err.Error(), "generate C")
}

func TestGeneratedScale_IsolatedFromCaller(t *testing.T) {
	def := newCircularC(10)
	gs, err := New(def, Options{})
	require.NoError(t, err)

	def.Subsections[0].Intervals[0] = 99
	def.Subsections[0].Labels.Set(3)
	def.Begin = 2
	got := gs.Definition()
	assert.Equal(t, 1.0, got.Begin)
	assert.Equal(t, 1.0, got.Subsections[0].Intervals[0])
	assert.False(t, got.Subsections[0].Labeled(TierTiny))

	got.Subsections[0].Intervals[0] = 42
	assert.Equal(t, 1.0, gs.Definition().Subsections[0].Intervals[0])

	ticks := gs.Ticks()
	ticks[0].Value = -1
	*ticks[1].Angle = -1
	assert.Equal(t, 1.0, gs.Tick(0).Value)
	assert.GreaterOrEqual(t, *gs.Tick(1).Angle, 0.0)
}

func TestGeneratedScale_Reading(t *testing.T) {
	gs, err := New(newCScale(250), Options{})
	require.NoError(t, err)

	v, text := gs.Reading(0.5)
	assert.InDelta(t, math.Sqrt(10), v, epsilon)
	assert.Equal(t, "3.162", text)

	v, text = gs.Reading(0)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, "1.000", text)
}

func TestGeneratedScale_ConcurrentReaders(t *testing.T) {
	gs, err := New(newCircularC(10), Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				p := float64((i+w)%100) / 100
				v, _ := gs.Reading(p)
				if math.Abs(gs.NormalizedPosition(v)-p) > 1e-6 {
					t.Errorf("worker %d: round trip at %v", w, p)
				}
				_ = gs.Ticks()
				_ = gs.Tick(i % gs.Len())
			}
		}(w)
	}
	wg.Wait()
}
