// Package density thins tick labels so they stay readable on short
// scales. Policies only ever clear Label; the tick marks themselves are
// left in place.
package density

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/cjeanneret/SlideGo/internal/logic/scale"
)

var ErrUnknownPolicy = errors.New("unknown label density policy")

// Policy decides which labels survive. spacing and length share the
// physical unit of the scale; positions in ticks are normalized.
type Policy interface {
	Name() string
	Thin(ticks []scale.TickMark, spacing, length float64)
}

// None keeps every label.
type None struct{}

// Name returns "none".
func (None) Name() string { return "none" }

// Thin leaves ticks untouched.
func (None) Thin(_ []scale.TickMark, _, _ float64) {}

// CoarsestOnly keeps the labels of the coarsest labeled tier.
type CoarsestOnly struct{}

// Name returns "coarsest".
func (CoarsestOnly) Name() string { return "coarsest" }

// Thin clears every label outside the coarsest labeled tier.
func (CoarsestOnly) Thin(ticks []scale.TickMark, _, _ float64) {
	top, ok := coarsest(ticks)
	if !ok {
		return
	}
	for i := range ticks {
		if ticks[i].Tier != top {
			ticks[i].Label = ""
		}
	}
}

// EveryNth keeps the first label and every Nth one after it. N of zero
// picks the smallest N that keeps the tightest pair of labels at least
// spacing apart.
type EveryNth struct {
	N int
}

// Name returns "every_nth".
func (EveryNth) Name() string { return "every_nth" }

// Thin keeps one label in every N, counting labeled ticks only.
func (e EveryNth) Thin(ticks []scale.TickMark, spacing, length float64) {
	idx := labeled(ticks)
	n := e.N
	if n <= 0 {
		n = autoStride(ticks, idx, spacing, length)
	}
	if n <= 1 {
		return
	}
	for k, i := range idx {
		if k%n != 0 {
			ticks[i].Label = ""
		}
	}
}

func autoStride(ticks []scale.TickMark, idx []int, spacing, length float64) int {
	if len(idx) < 2 || spacing <= 0 || length <= 0 {
		return 1
	}
	gaps := make([]float64, len(idx)-1)
	for k := 1; k < len(idx); k++ {
		gaps[k-1] = math.Abs(ticks[idx[k]].Position-ticks[idx[k-1]].Position) * length
	}
	g := floats.Min(gaps)
	if g <= 0 {
		return len(idx)
	}
	return max(1, int(math.Ceil(spacing/g)))
}

// Greedy walks the labels in position order. Labels of the coarsest tier
// are always kept; any other label is dropped when it lands closer than
// spacing to the last kept one.
type Greedy struct{}

// Name returns "greedy".
func (Greedy) Name() string { return "greedy" }

// Thin drops labels that crowd the previous kept label.
func (Greedy) Thin(ticks []scale.TickMark, spacing, length float64) {
	top, ok := coarsest(ticks)
	if !ok {
		return
	}
	last := math.NaN()
	for _, i := range labeled(ticks) {
		pos := ticks[i].Position * length
		if ticks[i].Tier != top && !math.IsNaN(last) && math.Abs(pos-last) < spacing {
			ticks[i].Label = ""
			continue
		}
		last = pos
	}
}

// Apply returns a copy of the ticks of gs thinned by p. A nil policy
// returns the ticks unchanged.
func Apply(gs *scale.GeneratedScale, p Policy, spacing float64) []scale.TickMark {
	ticks := gs.Ticks()
	if p != nil {
		p.Thin(ticks, spacing, gs.PhysicalLength())
	}
	return ticks
}

// ByName resolves a policy from its config name. every is only used by
// every_nth.
func ByName(name string, every int) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return None{}, nil
	case "coarsest":
		return CoarsestOnly{}, nil
	case "every_nth", "every-nth":
		return EveryNth{N: every}, nil
	case "greedy":
		return Greedy{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// Labels counts the ticks that carry a label.
func Labels(ticks []scale.TickMark) int {
	n := 0
	for _, t := range ticks {
		if t.HasLabel() {
			n++
		}
	}
	return n
}

func labeled(ticks []scale.TickMark) []int {
	var idx []int
	for i, t := range ticks {
		if t.HasLabel() {
			idx = append(idx, i)
		}
	}
	return idx
}

func coarsest(ticks []scale.TickMark) (scale.Tier, bool) {
	var top scale.Tier
	found := false
	for _, t := range ticks {
		if t.HasLabel() && (!found || t.Tier < top) {
			top, found = t.Tier, true
		}
	}
	return top, found
}
