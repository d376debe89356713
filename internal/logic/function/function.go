package function

import (
	"math"
	"sort"
)

// Function is the mathematical transform underlying a scale. Positions
// along a ruler are linear in Transform(x); Inverse maps back.
//
// For every x in the declared domain, Inverse(Transform(x)) == x within
// 1e-6 relative error. Outside the domain the transform returns NaN or
// ±Inf rather than an error.
type Function interface {
	Transform(x float64) float64
	Inverse(y float64) float64
	// Domain returns the open/closed bounds of valid inputs. An infinite
	// bound means unbounded on that side.
	Domain() (lo, hi float64)
	Name() string
}

const degToRad = math.Pi / 180.0

// Log is the decade logarithm used by the C/D family.
type Log struct{}

// Transform returns log10(x).
func (Log) Transform(x float64) float64 { return math.Log10(x) }

// Inverse returns 10^y.
func (Log) Inverse(y float64) float64 { return math.Pow(10, y) }

// Domain is (0, +Inf).
func (Log) Domain() (float64, float64) { return 0, math.Inf(1) }

// Name returns "log".
func (Log) Name() string { return "log" }

// SquaredLog spreads two decades over one scale length (A/B scales).
type SquaredLog struct{}

// Transform returns log10(x)/2.
func (SquaredLog) Transform(x float64) float64 { return 0.5 * math.Log10(x) }

// Inverse returns 10^(2y).
func (SquaredLog) Inverse(y float64) float64 { return math.Pow(10, 2*y) }

// Domain is (0, +Inf).
func (SquaredLog) Domain() (float64, float64) { return 0, math.Inf(1) }

// Name returns "squared_log".
func (SquaredLog) Name() string { return "squared_log" }

// CubedLog spreads three decades over one scale length (K scale).
type CubedLog struct{}

// Transform returns log10(x)/3.
func (CubedLog) Transform(x float64) float64 { return math.Log10(x) / 3 }

// Inverse returns 10^(3y).
func (CubedLog) Inverse(y float64) float64 { return math.Pow(10, 3*y) }

// Domain is (0, +Inf).
func (CubedLog) Domain() (float64, float64) { return 0, math.Inf(1) }

// Name returns "cubed_log".
func (CubedLog) Name() string { return "cubed_log" }

// LogLog is log10(ln x), the e^x family for values above 1 (LL1..LL3).
type LogLog struct{}

// Transform returns log10(ln x), or NaN for x <= 1.
func (LogLog) Transform(x float64) float64 {
	if x <= 1 {
		return math.NaN()
	}
	return math.Log10(math.Log(x))
}

// Inverse returns e^(10^y).
func (LogLog) Inverse(y float64) float64 { return math.Exp(math.Pow(10, y)) }

// Domain is (1, +Inf).
func (LogLog) Domain() (float64, float64) { return 1, math.Inf(1) }

// Name returns "loglog".
func (LogLog) Name() string { return "loglog" }

// NegLogLog is log10(-ln x), the e^-x family for values in (0, 1)
// (LL00..LL03).
type NegLogLog struct{}

// Transform returns log10(-ln x), or NaN outside (0, 1).
func (NegLogLog) Transform(x float64) float64 {
	if x <= 0 || x >= 1 {
		return math.NaN()
	}
	return math.Log10(-math.Log(x))
}

// Inverse returns e^(-10^y).
func (NegLogLog) Inverse(y float64) float64 { return math.Exp(-math.Pow(10, y)) }

// Domain is (0, 1).
func (NegLogLog) Domain() (float64, float64) { return 0, 1 }

// Name returns "neg_loglog".
func (NegLogLog) Name() string { return "neg_loglog" }

// Linear is the identity transform (L scale).
type Linear struct{}

// Transform returns x.
func (Linear) Transform(x float64) float64 { return x }

// Inverse returns y.
func (Linear) Inverse(y float64) float64 { return y }

// Domain is the whole real line.
func (Linear) Domain() (float64, float64) { return math.Inf(-1), math.Inf(1) }

// Name returns "linear".
func (Linear) Name() string { return "linear" }

// Sine is log10(sin x) with x in degrees (S scale).
type Sine struct{}

// Transform returns log10(sin x), or NaN outside (0, 90].
func (Sine) Transform(x float64) float64 {
	if x <= 0 || x > 90 {
		return math.NaN()
	}
	return math.Log10(math.Sin(x * degToRad))
}

// Inverse returns asin(10^y) in degrees, or NaN when 10^y > 1.
func (Sine) Inverse(y float64) float64 {
	s := math.Pow(10, y)
	if s > 1 {
		return math.NaN()
	}
	return math.Asin(s) / degToRad
}

// Domain is (0, 90] degrees.
func (Sine) Domain() (float64, float64) { return 0, 90 }

// Name returns "sin".
func (Sine) Name() string { return "sin" }

// Tangent is log10(tan x) with x in degrees (T scale).
type Tangent struct{}

// Transform returns log10(tan x), or NaN outside (0, 90).
func (Tangent) Transform(x float64) float64 {
	if x <= 0 || x >= 90 {
		return math.NaN()
	}
	return math.Log10(math.Tan(x * degToRad))
}

// Inverse returns atan(10^y) in degrees.
func (Tangent) Inverse(y float64) float64 { return math.Atan(math.Pow(10, y)) / degToRad }

// Domain is (0, 90) degrees.
func (Tangent) Domain() (float64, float64) { return 0, 90 }

// Name returns "tan".
func (Tangent) Name() string { return "tan" }

var registry = map[string]Function{
	Log{}.Name():        Log{},
	SquaredLog{}.Name(): SquaredLog{},
	CubedLog{}.Name():   CubedLog{},
	LogLog{}.Name():     LogLog{},
	NegLogLog{}.Name():  NegLogLog{},
	Linear{}.Name():     Linear{},
	Sine{}.Name():       Sine{},
	Tangent{}.Name():    Tangent{},
}

// ByName returns the variant registered under name.
func ByName(name string) (Function, bool) {
	f, ok := registry[name]
	return f, ok
}

// Names returns the registered variant names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
