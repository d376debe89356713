package density

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjeanneret/SlideGo/internal/logic/function"
	"github.com/cjeanneret/SlideGo/internal/logic/scale"
)

// newLabeledC is a 250 mm C scale with labels on the two coarsest tiers
// everywhere: 27 labels in total.
func newLabeledC(t *testing.T) *scale.GeneratedScale {
	t.Helper()
	labels := scale.LabelTiers(scale.TierMajor, scale.TierMedium)
	def := scale.Definition{
		Name:     "C",
		Function: function.Log{},
		Begin:    1,
		End:      10,
		Length:   250,
		Subsections: []scale.Subsection{
			{Start: 1, Intervals: []float64{1, 0.1, 0.05, 0.01}, Labels: labels},
			{Start: 2, Intervals: []float64{1, 0.5, 0.1, 0.02}, Labels: labels},
			{Start: 4, Intervals: []float64{1, 0.5, 0.1, 0.05}, Labels: labels},
		},
	}
	gs, err := scale.New(def, scale.Options{})
	require.NoError(t, err)
	require.Equal(t, 27, Labels(gs.Ticks()))
	return gs
}

func TestPolicies_LabelCounts(t *testing.T) {
	gs := newLabeledC(t)

	cases := []struct {
		name    string
		policy  Policy
		spacing float64
		want    int
	}{
		{"nil", nil, 8, 27},
		{"none", None{}, 8, 27},
		{"coarsest", CoarsestOnly{}, 0, 10},
		{"every_1", EveryNth{N: 1}, 0, 27},
		{"every_2", EveryNth{N: 2}, 0, 14},
		{"every_3", EveryNth{N: 3}, 0, 9},
		{"every_auto", EveryNth{}, 8, 14},
		{"every_auto_no_spacing", EveryNth{}, 0, 27},
		{"greedy_no_spacing", Greedy{}, 0, 27},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ticks := Apply(gs, tc.policy, tc.spacing)
			assert.Len(t, ticks, gs.Len(), "ticks are never removed")
			assert.Equal(t, tc.want, Labels(ticks))
		})
	}
}

func TestCoarsestOnly_KeepsMajorLabels(t *testing.T) {
	gs := newLabeledC(t)
	for _, tk := range Apply(gs, CoarsestOnly{}, 0) {
		if tk.HasLabel() {
			assert.Equal(t, scale.TierMajor, tk.Tier, "value %v", tk.Value)
		}
	}
}

func TestGreedy_EnforcesSpacing(t *testing.T) {
	gs := newLabeledC(t)
	const spacing = 8.0
	ticks := Apply(gs, Greedy{}, spacing)

	last := math.NaN()
	for _, tk := range ticks {
		if tk.Tier == scale.TierMajor {
			require.True(t, tk.HasLabel(), "major label at %v dropped", tk.Value)
		}
		if !tk.HasLabel() {
			continue
		}
		pos := tk.Position * gs.PhysicalLength()
		if tk.Tier != scale.TierMajor && !math.IsNaN(last) {
			assert.GreaterOrEqual(t, pos-last, spacing, "label %q", tk.Label)
		}
		last = pos
	}
	assert.Less(t, Labels(ticks), 27)
	assert.Greater(t, Labels(ticks), 10)
}

func TestApply_DoesNotMutateScale(t *testing.T) {
	gs := newLabeledC(t)
	before := gs.Ticks()
	_ = Apply(gs, CoarsestOnly{}, 0)
	assert.Equal(t, before, gs.Ticks())
}

func TestThin_NoLabels(t *testing.T) {
	ticks := []scale.TickMark{{Value: 1, Position: 0}, {Value: 2, Position: 0.5}}
	for _, p := range []Policy{None{}, CoarsestOnly{}, EveryNth{}, Greedy{}} {
		p.Thin(ticks, 10, 100)
		assert.Equal(t, 0, Labels(ticks), p.Name())
	}
}

func TestByName(t *testing.T) {
	cases := []struct {
		in   string
		want Policy
	}{
		{"", None{}},
		{"none", None{}},
		{"Coarsest", CoarsestOnly{}},
		{"every_nth", EveryNth{N: 4}},
		{"every-nth", EveryNth{N: 4}},
		{" greedy ", Greedy{}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ByName(tc.in, 4)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ByName("sparse", 0)
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}
