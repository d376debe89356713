package scale

import (
	"sort"
	"strconv"

	"github.com/cjeanneret/SlideGo/internal/logic/format"
)

// ActiveSubsection returns the subsection that governs value: the last
// one whose start is at or below it.
func ActiveSubsection(value float64, def *Definition) (Subsection, bool) {
	subs := def.Subsections
	i := sort.Search(len(subs), func(i int) bool {
		return subs[i].Start > value
	})
	if i == 0 {
		return Subsection{}, false
	}
	return subs[i-1], true
}

// DecimalPlaces returns how many decimals a reading of value should show,
// one digit finer than the finest tick spacing around it. Values outside
// the scale, or without a governing subsection, get format.DefaultPlaces.
func DecimalPlaces(value float64, def *Definition) int {
	lo, hi := def.Bounds()
	if !(value >= lo && value <= hi) {
		return format.DefaultPlaces
	}
	sub, ok := ActiveSubsection(value, def)
	if !ok {
		return format.DefaultPlaces
	}
	if sub.Places > 0 {
		return sub.Places
	}
	if def.Precision > 0 {
		return def.Precision
	}
	finest, ok := sub.Finest()
	if !ok {
		return format.DefaultPlaces
	}
	return format.PlacesForInterval(finest)
}

// FormatReading renders a cursor reading of value with DecimalPlaces.
// NaN and infinite values render as format.Placeholder.
func FormatReading(value float64, def *Definition) string {
	if format.NonFinite(value) {
		return format.Placeholder
	}
	return strconv.FormatFloat(value, 'f', DecimalPlaces(value, def), 64)
}
