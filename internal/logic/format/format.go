// Package format turns scale values into label and reading text.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Placeholder is rendered for NaN and ±Inf values.
const Placeholder = "—"

// Precision bounds for readings derived from tick intervals.
const (
	MinPlaces     = 1
	MaxPlaces     = 5
	DefaultPlaces = 2
)

// Formatter renders a scale value as label text.
type Formatter interface {
	Format(v float64) string
}

// FormatterFunc adapts a plain function to Formatter.
type FormatterFunc func(v float64) string

// Format calls f(v).
func (f FormatterFunc) Format(v float64) string { return f(v) }

// Resolve returns the first non-nil formatter in priority order, or
// Adaptive when none is set. Callers pass subsection, then scale-wide.
func Resolve(candidates ...Formatter) Formatter {
	for _, f := range candidates {
		if f != nil {
			return f
		}
	}
	return Adaptive{}
}

// NonFinite reports whether v is NaN or infinite.
func NonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// PlacesForInterval returns the number of decimals needed to read a value
// to one digit finer than the tick spacing h:
// clamp(-floor(log10(h)) + 1, 1, 5). Non-positive or non-finite h gives
// DefaultPlaces.
func PlacesForInterval(h float64) int {
	if h <= 0 || NonFinite(h) {
		return DefaultPlaces
	}
	// log10 of an exact decade can land a hair below the integer.
	places := -int(math.Floor(math.Log10(h)+1e-9)) + 1
	if places < MinPlaces {
		return MinPlaces
	}
	if places > MaxPlaces {
		return MaxPlaces
	}
	return places
}

// Fixed formats with a constant number of decimals.
type Fixed struct {
	Places int
}

// Format renders v with exactly f.Places decimals.
func (f Fixed) Format(v float64) string {
	if NonFinite(v) {
		return Placeholder
	}
	return strconv.FormatFloat(v, 'f', f.Places, 64)
}

// Adaptive picks decimals from the magnitude of the value: round values
// print as integers, small magnitudes get more decimals, trailing zeros are
// trimmed.
type Adaptive struct{}

// Format renders v as an integer when it is one, otherwise with the
// decimals its magnitude calls for.
func (Adaptive) Format(v float64) string {
	if NonFinite(v) {
		return Placeholder
	}
	if r := math.Round(v); nearInteger(v, r) {
		return strconv.FormatFloat(r, 'f', 0, 64)
	}
	digits := magnitudeDigits(v)
	scale := math.Pow10(digits)
	return humanize.FtoaWithDigits(math.Round(v*scale)/scale, digits)
}

func nearInteger(v, r float64) bool {
	return math.Abs(v-r) <= 1e-9*math.Max(1, math.Abs(v))
}

func magnitudeDigits(v float64) int {
	a := math.Abs(v)
	switch {
	case a >= 100:
		return 1
	case a >= 10:
		return 2
	case a >= 1:
		return 3
	case a >= 0.1:
		return 4
	default:
		return 5
	}
}

// Compact labels a multi-decade scale the way printed rules do: inside
// decade k the value is divided by 10^k, so a cubed scale shows 200 as
// "2". Decade boundaries (1, 10, 100, ...) print in full.
type Compact struct {
	Decades int
}

// Format renders v scaled down to its decade.
func (c Compact) Format(v float64) string {
	if NonFinite(v) {
		return Placeholder
	}
	for k := 0; k <= c.Decades; k++ {
		if within(v, math.Pow10(k)) {
			return Adaptive{}.Format(math.Pow10(k))
		}
	}
	for k := c.Decades - 1; k > 0; k-- {
		if v > math.Pow10(k) {
			return Adaptive{}.Format(v / math.Pow10(k))
		}
	}
	return Adaptive{}.Format(v)
}

// within is an inclusive test of v against target ± 0.5%, so 100 matches
// anything in [99.5, 100.5].
func within(v, target float64) bool {
	tol := 0.005 * target
	return v >= target-tol && v <= target+tol
}

// ByName resolves a formatter name used in catalog files: "adaptive",
// "integer", "squared", "cubed" or "fixed:N".
func ByName(name string) (Formatter, error) {
	switch name {
	case "", "adaptive":
		return Adaptive{}, nil
	case "integer":
		return Fixed{Places: 0}, nil
	case "squared":
		return Compact{Decades: 2}, nil
	case "cubed":
		return Compact{Decades: 3}, nil
	}
	if rest, ok := strings.CutPrefix(name, "fixed:"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 || n > 10 {
			return nil, fmt.Errorf("invalid fixed precision %q", rest)
		}
		return Fixed{Places: n}, nil
	}
	return nil, fmt.Errorf("unknown formatter %q", name)
}
