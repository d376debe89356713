package scale

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// mapper caches the transform of both ends of a definition. Every
// position computed in this package goes through it so that the begin and
// end values map to exactly 0 and 1.
type mapper struct {
	def    *Definition
	fb, fe float64
}

func newMapper(def *Definition) mapper {
	f := def.Function
	return mapper{def: def, fb: f.Transform(def.Begin), fe: f.Transform(def.End)}
}

func (m mapper) normalized(value float64) float64 {
	return (m.def.Function.Transform(value) - m.fb) / (m.fe - m.fb)
}

func (m mapper) value(position float64) float64 {
	return m.def.Function.Inverse(m.fb + position*(m.fe-m.fb))
}

// span is the transform distance covered by the scale.
func (m mapper) span() float64 {
	return math.Abs(m.fe - m.fb)
}

// sweep is the arc in degrees covered by a circular scale.
func (m mapper) sweep() float64 {
	return 360 * m.span() / m.def.Layout.cycle()
}

func (m mapper) angle(position float64) float64 {
	return wrapDegrees(position * m.sweep())
}

// NormalizedPosition maps a scale value to its fraction of the scale
// extent: (f(value) - f(begin)) / (f(end) - f(begin)). The begin value
// maps to exactly 0 and the end value to exactly 1.
func NormalizedPosition(value float64, def *Definition) float64 {
	return newMapper(def).normalized(value)
}

// Value is the inverse of NormalizedPosition: it interpolates linearly in
// transform space and applies the inverse transform.
func Value(position float64, def *Definition) float64 {
	return newMapper(def).value(position)
}

// AbsolutePosition is the distance from the scale origin in the physical
// units of the definition.
func AbsolutePosition(value float64, def *Definition) float64 {
	return NormalizedPosition(value, def) * def.PhysicalLength()
}

// AngularPosition returns the angle in [0, 360) of value on a circular
// scale. Linear layouts yield NaN.
func AngularPosition(value float64, def *Definition) float64 {
	if !def.Layout.IsCircular() {
		return math.NaN()
	}
	m := newMapper(def)
	return m.angle(m.normalized(value))
}

// ValueAtAngle is the inverse of AngularPosition. Angles past the end of
// a partial arc, and any angle on a linear layout, yield NaN. When a
// scale wraps more than once, the first revolution is used.
func ValueAtAngle(angle float64, def *Definition) float64 {
	if !def.Layout.IsCircular() || math.IsNaN(angle) || math.IsInf(angle, 0) {
		return math.NaN()
	}
	m := newMapper(def)
	sweep := m.sweep()
	if sweep == 0 || math.IsNaN(sweep) {
		return math.NaN()
	}
	p := wrapDegrees(angle) / sweep
	if p > 1 {
		return math.NaN()
	}
	return m.value(p)
}

// IsFullTurn reports whether a circular scale ends where it begins, i.e.
// f(end) equals f(begin) modulo one cycle.
func IsFullTurn(def *Definition) bool {
	if !def.Layout.IsCircular() {
		return false
	}
	m := newMapper(def)
	span, cycle := m.span(), def.Layout.cycle()
	if math.IsNaN(span) || math.IsInf(span, 0) || span < cycle*(1-1e-9) {
		return false
	}
	return scalar.EqualWithinAbs(math.Remainder(span, cycle), 0, 1e-9*cycle)
}

func wrapDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}
