package scale

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cjeanneret/SlideGo/internal/logic/format"
)

// Algorithm selects how tick marks are produced.
type Algorithm int

const (
	// Modulo enumerates candidates at the finest spacing and assigns each
	// one to the coarsest tier whose interval divides its offset, using
	// integer arithmetic. It is the default.
	Modulo Algorithm = iota
	// Legacy steps every tier independently and emits duplicates wherever
	// tiers coincide. It is kept only to compare against historical output.
	Legacy
)

func (a Algorithm) String() string {
	switch a {
	case Modulo:
		return "modulo"
	case Legacy:
		return "legacy"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm accepts "modulo" or "legacy", case-insensitively.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "modulo":
		return Modulo, nil
	case "legacy":
		return Legacy, nil
	}
	return Modulo, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

var (
	ErrUnknownAlgorithm  = errors.New("unknown tick algorithm")
	ErrTooManyCandidates = errors.New("too many tick candidates")
	ErrBadMultiplier     = errors.New("precision multiplier cannot represent interval")
)

const (
	// DefaultMinSeparation is the smallest normalized distance allowed
	// between two emitted ticks.
	DefaultMinSeparation = 1e-6
	// DefaultMaxCandidates bounds the candidates enumerated per subsection.
	DefaultMaxCandidates = 200000

	maxDecimals = 9
)

// Options tune tick generation. The zero value selects the modulo
// algorithm with default tolerances.
type Options struct {
	Algorithm Algorithm
	// MinSeparation is in normalized units. Zero means DefaultMinSeparation.
	MinSeparation float64
	// KeepCircularOverlap retains the end tick of a full-turn circular
	// scale even though it lands on the begin tick.
	KeepCircularOverlap bool
	// PrecisionMultiplier forces P for every subsection. Zero defers to
	// the definition, then to auto-derivation.
	PrecisionMultiplier int64
	// MaxCandidates is a per-subsection guard. Zero means
	// DefaultMaxCandidates.
	MaxCandidates int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.MinSeparation <= 0 {
		o.MinSeparation = DefaultMinSeparation
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = DefaultMaxCandidates
	}
	return o
}

// GenerateTickMarks computes the tick marks of def with the given
// algorithm. Under Modulo the result is strictly ascending by position,
// no two ticks are closer than MinSeparation, and the output is identical
// across runs.
func GenerateTickMarks(def *Definition, opts Options) ([]TickMark, error) {
	opts = opts.withDefaults()
	switch opts.Algorithm {
	case Modulo:
		return generateModulo(def, opts)
	case Legacy:
		return generateLegacy(def, opts), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownAlgorithm, opts.Algorithm)
	}
}

// subsectionEnd returns where subsection i stops and whether that bound
// is itself a candidate. Only the scale's upper bound is inclusive; a
// following subsection owns its own start.
func subsectionEnd(def *Definition, i int, hi float64) (float64, bool) {
	if i+1 < len(def.Subsections) {
		if next := def.Subsections[i+1].Start; next < hi {
			return next, false
		}
	}
	return hi, true
}

// Multiplier returns the integer precision multiplier P used for a
// subsection: the forced value from opts, else the definition's, else the
// smallest power of ten that makes the start and every non-zero interval
// integral.
func Multiplier(sub Subsection, def *Definition, opts Options) int64 {
	if opts.PrecisionMultiplier > 0 {
		return opts.PrecisionMultiplier
	}
	if def.Multiplier > 0 {
		return def.Multiplier
	}
	d := decimals(sub.Start)
	for _, iv := range sub.Intervals {
		if iv > 0 {
			d = max(d, decimals(iv))
		}
	}
	return int64(math.Pow10(d))
}

// decimals is the fewest decimal digits needed to write x exactly, capped
// at maxDecimals.
func decimals(x float64) int {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	for d := 0; d < maxDecimals; d++ {
		if integral(x, math.Pow10(d)) {
			return d
		}
	}
	return maxDecimals
}

// integral reports whether x scaled by pf lands on an integer.
func integral(x, pf float64) bool {
	s := x * pf
	return math.Abs(s-math.Round(s)) <= 1e-9*math.Max(1, math.Abs(s))
}

type candidate struct {
	value float64
	tier  Tier
	sub   int
}

// classify enumerates the candidates of one subsection between lo and end
// and assigns each the coarsest tier whose scaled interval divides the
// scaled offset from the subsection start.
func classify(def *Definition, i int, lo, end float64, inclusive bool, opts Options) ([]candidate, error) {
	sub := def.Subsections[i]
	p := Multiplier(sub, def, opts)
	pf := float64(p)

	if !integral(sub.Start, pf) {
		return nil, fmt.Errorf("%w: %s subsection %d start %g with P=%d",
			ErrBadMultiplier, def.Name, i, sub.Start, p)
	}
	scaled := make([]int64, len(sub.Intervals))
	var step int64
	for t, iv := range sub.Intervals {
		if iv <= 0 {
			continue
		}
		scaled[t] = int64(math.Round(iv * pf))
		if scaled[t] == 0 || !integral(iv, pf) {
			return nil, fmt.Errorf("%w: %s subsection %d interval %g with P=%d",
				ErrBadMultiplier, def.Name, i, iv, p)
		}
		if step == 0 || scaled[t] < step {
			step = scaled[t]
		}
	}
	if step == 0 {
		return nil, nil
	}

	start := int64(math.Round(sub.Start * pf))
	var last int64
	if inclusive {
		last = int64(math.Floor(end*pf + 1e-7))
	} else {
		last = int64(math.Ceil(end*pf-1e-7)) - 1
	}
	first := start
	if lowest := int64(math.Ceil(lo*pf - 1e-7)); lowest > start {
		first = start + (lowest-start+step-1)/step*step
	}
	if last < first {
		return nil, nil
	}
	if n := (last-first)/step + 1; n > int64(opts.MaxCandidates) {
		return nil, fmt.Errorf("%w: %s subsection %d needs %d (limit %d)",
			ErrTooManyCandidates, def.Name, i, n, opts.MaxCandidates)
	}

	out := make([]candidate, 0, (last-first)/step+1)
	for k := first; k <= last; k += step {
		offset := k - start
		for t, iv := range scaled {
			if iv == 0 {
				continue
			}
			if offset%iv == 0 {
				out = append(out, candidate{value: float64(k) / pf, tier: Tier(t), sub: i})
				break
			}
		}
	}
	return out, nil
}

func generateModulo(def *Definition, opts Options) ([]TickMark, error) {
	m := newMapper(def)
	lo, hi := def.Bounds()

	var ticks []TickMark
	lastPos := math.NaN()
	for i, sub := range def.Subsections {
		if sub.Start > hi {
			continue
		}
		end, inclusive := subsectionEnd(def, i, hi)
		if end < lo {
			continue
		}
		cands, err := classify(def, i, lo, end, inclusive, opts)
		if err != nil {
			return nil, err
		}
		for _, c := range cands {
			t, ok := makeTick(def, m, c)
			if !ok {
				continue
			}
			// Candidates come out in ascending value order and the
			// transform is monotonic, so the previous kept tick is the
			// only one that can be too close.
			if !math.IsNaN(lastPos) && math.Abs(t.Position-lastPos) < opts.MinSeparation {
				continue
			}
			lastPos = t.Position
			ticks = append(ticks, t)
		}
	}

	sortByPosition(ticks)

	if IsFullTurn(def) && !opts.KeepCircularOverlap {
		for len(ticks) > 0 && ticks[len(ticks)-1].Position >= 1-opts.MinSeparation {
			ticks = ticks[:len(ticks)-1]
		}
	}
	return ticks, nil
}

// generateLegacy steps each tier on its own from the subsection start to
// its end, inclusive, without looking at what coarser tiers emitted.
func generateLegacy(def *Definition, opts Options) []TickMark {
	m := newMapper(def)
	lo, hi := def.Bounds()
	tol := 1e-9 * math.Max(1, math.Abs(hi))

	var ticks []TickMark
	for i, sub := range def.Subsections {
		if sub.Start > hi {
			continue
		}
		end, _ := subsectionEnd(def, i, hi)
		for t, iv := range sub.Intervals {
			if iv <= 0 {
				continue
			}
			for n := 0; ; n++ {
				v := sub.Start + float64(n)*iv
				if v > end+tol || n >= opts.MaxCandidates {
					break
				}
				if v < lo-tol {
					continue
				}
				if tick, ok := makeTick(def, m, candidate{value: v, tier: Tier(t), sub: i}); ok {
					ticks = append(ticks, tick)
				}
			}
		}
	}
	sortByPosition(ticks)
	return ticks
}

func makeTick(def *Definition, m mapper, c candidate) (TickMark, bool) {
	pos := m.normalized(c.value)
	if math.IsNaN(pos) || math.IsInf(pos, 0) {
		return TickMark{}, false
	}
	sub := def.Subsections[c.sub]
	t := TickMark{
		Value:    c.value,
		Position: pos,
		Tier:     c.tier,
		Height:   def.TierHeight(c.tier),
	}
	if def.Layout.IsCircular() {
		a := m.angle(pos)
		t.Angle = &a
	}
	if sub.Labeled(c.tier) {
		t.Label = format.Resolve(sub.Formatter, def.Formatter).Format(c.value)
	}
	return t, true
}

func sortByPosition(ticks []TickMark) {
	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].Position < ticks[j].Position
	})
}
