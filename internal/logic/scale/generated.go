package scale

import (
	"fmt"
	"slices"
)

// GeneratedScale pairs a definition with its tick marks. Ticks are
// generated once in New; nothing is mutated afterwards, so a
// GeneratedScale is safe for concurrent readers.
type GeneratedScale struct {
	def   Definition
	m     mapper
	ticks []TickMark
	opts  Options
}

// New generates the tick marks for def. The definition is deep-copied so
// later changes by the caller do not leak in.
func New(def Definition, opts Options) (*GeneratedScale, error) {
	g := &GeneratedScale{def: def.Clone(), opts: opts.withDefaults()}
	g.m = newMapper(&g.def)
	ticks, err := GenerateTickMarks(&g.def, g.opts)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", def.Name, err)
	}
	g.ticks = ticks
	return g, nil
}

// Name returns the scale name.
func (g *GeneratedScale) Name() string { return g.def.Name }

// Definition returns a copy of the definition.
func (g *GeneratedScale) Definition() Definition { return g.def.Clone() }

// Options returns the options the ticks were generated with.
func (g *GeneratedScale) Options() Options { return g.opts }

// Ticks returns a copy of the tick marks.
func (g *GeneratedScale) Ticks() []TickMark {
	out := slices.Clone(g.ticks)
	for i := range out {
		out[i] = out[i].clone()
	}
	return out
}

// PhysicalLength is the extent absolute positions are measured along.
func (g *GeneratedScale) PhysicalLength() float64 { return g.def.PhysicalLength() }

// Len returns the number of tick marks.
func (g *GeneratedScale) Len() int { return len(g.ticks) }

// Tick returns the i-th tick mark.
func (g *GeneratedScale) Tick(i int) TickMark { return g.ticks[i].clone() }

// NormalizedPosition maps value onto this scale.
func (g *GeneratedScale) NormalizedPosition(value float64) float64 {
	return g.m.normalized(value)
}

// Value reads the scale at a normalized position.
func (g *GeneratedScale) Value(position float64) float64 {
	return g.m.value(position)
}

// Reading returns the value at position and its display text.
func (g *GeneratedScale) Reading(position float64) (float64, string) {
	v := g.m.value(position)
	return v, FormatReading(v, &g.def)
}
