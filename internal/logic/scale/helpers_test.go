package scale

import (
	"math"
	"testing"

	"github.com/cjeanneret/SlideGo/internal/logic/function"
)

const epsilon = 1e-9

// cSubsections is the classic C/D interval layout.
func cSubsections() []Subsection {
	return []Subsection{
		{Start: 1, Intervals: []float64{1, 0.1, 0.05, 0.01}, Labels: LabelTiers(TierMajor, TierMedium)},
		{Start: 2, Intervals: []float64{1, 0.5, 0.1, 0.02}, Labels: LabelTiers(TierMajor)},
		{Start: 4, Intervals: []float64{1, 0.5, 0.1, 0.05}, Labels: LabelTiers(TierMajor)},
	}
}

func newCScale(length float64) Definition {
	return Definition{
		Name:        "C",
		Formula:     "x",
		Function:    function.Log{},
		Begin:       1,
		End:         10,
		Length:      length,
		Layout:      Linear(length),
		Subsections: cSubsections(),
	}
}

func newCircularC(end float64) Definition {
	d := newCScale(0)
	d.Name = "CC"
	d.End = end
	d.Layout = Circular(100, 45)
	return d
}

func tickAt(t *testing.T, ticks []TickMark, v float64) TickMark {
	t.Helper()
	for _, tk := range ticks {
		if math.Abs(tk.Value-v) < epsilon {
			return tk
		}
	}
	t.Fatalf("no tick at value %v", v)
	return TickMark{}
}

func hasTickAt(ticks []TickMark, v float64) bool {
	for _, tk := range ticks {
		if math.Abs(tk.Value-v) < epsilon {
			return true
		}
	}
	return false
}
