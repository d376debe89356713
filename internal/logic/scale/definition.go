package scale

import (
	"math"
	"slices"
	"strconv"

	"github.com/bits-and-blooms/bitset"

	"github.com/cjeanneret/SlideGo/internal/logic/format"
	"github.com/cjeanneret/SlideGo/internal/logic/function"
)

// LayoutKind selects how a scale is laid out on the instrument body.
type LayoutKind int

const (
	LayoutLinear LayoutKind = iota
	LayoutCircular
)

func (k LayoutKind) String() string {
	if k == LayoutCircular {
		return "circular"
	}
	return "linear"
}

// Layout describes the physical shape of a scale.
type Layout struct {
	Kind     LayoutKind
	Length   float64 // linear only
	Diameter float64 // circular only
	Radius   float64 // circular only: radius of the tick baseline
	// Cycle is the number of transform units per revolution. Zero means 1,
	// i.e. one decade per turn for a logarithmic scale.
	Cycle float64
}

// Linear returns a straight layout of the given length.
func Linear(length float64) Layout {
	return Layout{Kind: LayoutLinear, Length: length}
}

// Circular returns a disc layout with one transform unit per revolution.
func Circular(diameter, radius float64) Layout {
	return Layout{Kind: LayoutCircular, Diameter: diameter, Radius: radius, Cycle: 1}
}

// IsCircular reports whether ticks also carry an angular position.
func (l Layout) IsCircular() bool { return l.Kind == LayoutCircular }

func (l Layout) cycle() float64 {
	if l.Cycle > 0 {
		return l.Cycle
	}
	return 1
}

// Direction is the side of the baseline ticks are drawn towards.
type Direction int

const (
	TicksUp Direction = iota
	TicksDown
)

func (d Direction) String() string {
	if d == TicksDown {
		return "down"
	}
	return "up"
}

// Tier is a rank in a subsection's interval hierarchy, coarsest first.
type Tier int

const (
	TierMajor Tier = iota
	TierMedium
	TierMinor
	TierTiny
)

var tierNames = [...]string{"major", "medium", "minor", "tiny"}

func (t Tier) String() string {
	if t >= 0 && int(t) < len(tierNames) {
		return tierNames[t]
	}
	return "tier" + strconv.Itoa(int(t))
}

// DefaultTierHeights are the relative tick heights for each tier when a
// definition does not provide its own.
var DefaultTierHeights = []float64{1.0, 0.75, 0.55, 0.4}

// Subsection is a contiguous value range carrying its own interval
// hierarchy. It applies from Start up to the next subsection's Start, or
// the scale end for the last one.
type Subsection struct {
	Start float64
	// Intervals are ordered coarsest to finest. A zero interval disables
	// its tier.
	Intervals []float64
	// Labels holds the tier indices that receive a label.
	Labels    *bitset.BitSet
	Formatter format.Formatter
	// Places overrides the decimal places of readings in this range.
	Places int
}

// LabelTiers builds a label tier set.
func LabelTiers(tiers ...Tier) *bitset.BitSet {
	b := bitset.New(uint(len(tierNames)))
	for _, t := range tiers {
		b.Set(uint(t))
	}
	return b
}

// Labeled reports whether ticks of tier t get a label.
func (s Subsection) Labeled(t Tier) bool {
	return s.Labels != nil && t >= 0 && s.Labels.Test(uint(t))
}

// Finest returns the smallest non-zero interval.
func (s Subsection) Finest() (float64, bool) {
	finest := math.Inf(1)
	for _, iv := range s.Intervals {
		if iv > 0 && iv < finest {
			finest = iv
		}
	}
	return finest, !math.IsInf(finest, 1)
}

func (s Subsection) clone() Subsection {
	c := s
	c.Intervals = slices.Clone(s.Intervals)
	if s.Labels != nil {
		c.Labels = s.Labels.Clone()
	}
	return c
}

// Definition is the static description of one named scale.
type Definition struct {
	Name      string
	Formula   string
	Function  function.Function
	Begin     float64
	End       float64
	Length    float64
	Layout    Layout
	Direction Direction
	// Subsections must be sorted ascending by Start.
	Subsections []Subsection
	TierHeights []float64
	Formatter   format.Formatter
	// Precision overrides the auto-derived reading decimals for the whole
	// scale. Zero means auto.
	Precision int
	// Multiplier fixes the integer precision multiplier used by tick
	// classification. Zero means derive per subsection.
	Multiplier int64
}

// Clone returns a deep copy that shares nothing mutable with d.
func (d Definition) Clone() Definition {
	c := d
	c.TierHeights = slices.Clone(d.TierHeights)
	if d.Subsections != nil {
		c.Subsections = make([]Subsection, len(d.Subsections))
		for i, s := range d.Subsections {
			c.Subsections[i] = s.clone()
		}
	}
	return c
}

// Bounds returns the value range in ascending order, whichever way the
// scale runs.
func (d *Definition) Bounds() (lo, hi float64) {
	if d.Begin <= d.End {
		return d.Begin, d.End
	}
	return d.End, d.Begin
}

// PhysicalLength is the extent used for absolute positions: the explicit
// Length, else the linear layout length, else the circumference of a
// circular layout.
func (d *Definition) PhysicalLength() float64 {
	switch {
	case d.Length > 0:
		return d.Length
	case d.Layout.IsCircular():
		return math.Pi * d.Layout.Diameter
	default:
		return d.Layout.Length
	}
}

// TierHeight returns the relative tick height for t.
func (d *Definition) TierHeight(t Tier) float64 {
	heights := d.TierHeights
	if len(heights) == 0 {
		heights = DefaultTierHeights
	}
	if t < 0 {
		return heights[0]
	}
	if int(t) < len(heights) {
		return heights[t]
	}
	return heights[len(heights)-1]
}

// TickMark is a single graduation.
type TickMark struct {
	Value    float64  `json:"value" yaml:"value"`
	Position float64  `json:"position" yaml:"position"`
	Angle    *float64 `json:"angle,omitempty" yaml:"angle,omitempty"`
	Tier     Tier     `json:"tier" yaml:"tier"`
	Height   float64  `json:"height" yaml:"height"`
	Label    string   `json:"label,omitempty" yaml:"label,omitempty"`
}

func (t TickMark) clone() TickMark {
	if t.Angle != nil {
		a := *t.Angle
		t.Angle = &a
	}
	return t
}

// HasLabel reports whether the tick carries label text.
func (t TickMark) HasLabel() bool { return t.Label != "" }
