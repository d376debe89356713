package scale

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// ValidationError describes one problem with a definition.
type ValidationError struct {
	Scale string
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Scale == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("scale %s: %s: %s", e.Scale, e.Field, e.Msg)
}

// Validate checks def and returns every violation found. It never stops
// at the first problem; an empty result means the definition is usable.
// Validation is advisory: generation does not call it.
func Validate(def *Definition) []error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Scale: def.Name, Field: field, Msg: fmt.Sprintf(format, args...)})
	}

	if def.Function == nil {
		add("function", "is required")
	}
	if !finite(def.Begin) {
		add("begin", "must be finite, got %v", def.Begin)
	}
	if !finite(def.End) {
		add("end", "must be finite, got %v", def.End)
	}
	if finite(def.Begin) && def.Begin == def.End {
		add("end", "must differ from begin (%v)", def.Begin)
	}
	if def.Function != nil && finite(def.Begin) && finite(def.End) {
		lo, hi := def.Function.Domain()
		for _, b := range []struct {
			field string
			v     float64
		}{{"begin", def.Begin}, {"end", def.End}} {
			// Open bounds show up as a non-finite transform.
			if b.v < lo || b.v > hi || !finite(def.Function.Transform(b.v)) {
				add(b.field, "%v is outside the %s domain (%g to %g)", b.v, def.Function.Name(), lo, hi)
			}
		}
	}
	if l := def.PhysicalLength(); !finite(l) || l <= 0 {
		add("length", "must be > 0, got %v", l)
	}
	if def.Layout.IsCircular() && def.Layout.Diameter <= 0 {
		add("layout.diameter", "must be > 0 for a circular layout, got %v", def.Layout.Diameter)
	}
	if def.Layout.Cycle < 0 {
		add("layout.cycle", "must be >= 0, got %v", def.Layout.Cycle)
	}

	if len(def.Subsections) == 0 {
		add("subsections", "at least one subsection is required")
	}
	for i, sub := range def.Subsections {
		field := fmt.Sprintf("subsections[%d]", i)
		if !finite(sub.Start) {
			add(field+".start", "must be finite, got %v", sub.Start)
		}
		if i > 0 && sub.Start <= def.Subsections[i-1].Start {
			add(field+".start", "%v overlaps subsections[%d] starting at %v",
				sub.Start, i-1, def.Subsections[i-1].Start)
		}
		if _, ok := sub.Finest(); !ok {
			add(field+".intervals", "needs at least one non-zero interval")
		}
		prev := math.Inf(1)
		for t, iv := range sub.Intervals {
			switch {
			case iv < 0 || math.IsNaN(iv) || math.IsInf(iv, 0):
				add(fmt.Sprintf("%s.intervals[%d]", field, t), "must be finite and >= 0, got %v", iv)
			case iv == 0:
			case iv > prev:
				add(fmt.Sprintf("%s.intervals[%d]", field, t), "%v is coarser than a preceding tier (%v)", iv, prev)
			default:
				prev = iv
			}
		}
		if sub.Labels != nil {
			for b, ok := sub.Labels.NextSet(0); ok; b, ok = sub.Labels.NextSet(b + 1) {
				if int(b) >= len(sub.Intervals) {
					add(field+".labels", "tier %d has no interval", b)
				}
			}
		}
	}
	return errs
}

// ValidationErr combines the result of Validate into a single error, or
// nil when the definition is valid.
func ValidationErr(def *Definition) error {
	return multierr.Combine(Validate(def)...)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
