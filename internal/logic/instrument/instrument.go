// Package instrument assembles generated scales into one slide rule and
// reads all of them under a shared cursor.
package instrument

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cjeanneret/SlideGo/internal/debug"
	"github.com/cjeanneret/SlideGo/internal/logic/scale"
)

var ErrDuplicateScale = errors.New("scale appears twice in instrument")

// Instrument is an ordered set of generated scales. It is immutable once
// assembled and safe for concurrent readers.
type Instrument struct {
	scales []*scale.GeneratedScale
	index  map[string]int
	opts   scale.Options
}

// Assemble generates every definition with at most workers running at
// once (zero or less means GOMAXPROCS). Scales keep the order of defs
// whatever order they finish in. The first generation error aborts the
// assembly.
func Assemble(defs []scale.Definition, opts scale.Options, workers int) (*Instrument, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	in := &Instrument{
		scales: make([]*scale.GeneratedScale, len(defs)),
		index:  make(map[string]int, len(defs)),
		opts:   opts,
	}
	for i, d := range defs {
		if _, dup := in.index[d.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScale, d.Name)
		}
		in.index[d.Name] = i
	}

	start := time.Now()
	var g errgroup.Group
	g.SetLimit(workers)
	for i, def := range defs {
		g.Go(func() error {
			gs, err := scale.New(def, opts)
			if err != nil {
				return err
			}
			debug.Generated(gs.Name(), gs.Len(), gs.Options().Algorithm.String())
			if debug.IsEnabled(debug.LevelTrace) {
				traceTicks(gs)
			}
			in.scales[i] = gs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		debug.Error(err)
		return nil, fmt.Errorf("assemble instrument: %w", err)
	}
	debug.Assembly(len(in.scales), in.TotalTicks(), time.Since(start))
	return in, nil
}

func traceTicks(gs *scale.GeneratedScale) {
	for _, t := range gs.Ticks() {
		debug.Trace("%s tick %g at %.6f tier %d label %s", gs.Name(), t.Value, t.Position, t.Tier, t.Label)
	}
}

// Len returns the number of scales.
func (in *Instrument) Len() int { return len(in.scales) }

// Options returns the generation options shared by every scale.
func (in *Instrument) Options() scale.Options { return in.opts }

// Names returns the scale names in assembly order.
func (in *Instrument) Names() []string {
	names := make([]string, len(in.scales))
	for i, gs := range in.scales {
		names[i] = gs.Name()
	}
	return names
}

// Scales returns the generated scales in assembly order.
func (in *Instrument) Scales() []*scale.GeneratedScale {
	out := make([]*scale.GeneratedScale, len(in.scales))
	copy(out, in.scales)
	return out
}

// Scale returns the named scale.
func (in *Instrument) Scale(name string) (*scale.GeneratedScale, bool) {
	i, ok := in.index[name]
	if !ok {
		return nil, false
	}
	return in.scales[i], true
}

// TotalTicks sums the tick marks of every scale.
func (in *Instrument) TotalTicks() int {
	n := 0
	for _, gs := range in.scales {
		n += gs.Len()
	}
	return n
}

// Reading is what the cursor shows on one scale.
type Reading struct {
	Scale    string
	Position float64
	Value    float64
	Text     string
	// Angle is set on circular scales.
	Angle *float64
}

// Read places the cursor at a normalized position and reads every scale.
func (in *Instrument) Read(position float64) []Reading {
	out := make([]Reading, len(in.scales))
	for i, gs := range in.scales {
		out[i] = read(gs, position)
	}
	return out
}

// ReadScale reads one scale at a normalized position.
func (in *Instrument) ReadScale(name string, position float64) (Reading, bool) {
	gs, ok := in.Scale(name)
	if !ok {
		return Reading{}, false
	}
	return read(gs, position), true
}

func read(gs *scale.GeneratedScale, position float64) Reading {
	v, text := gs.Reading(position)
	r := Reading{Scale: gs.Name(), Position: position, Value: v, Text: text}
	def := gs.Definition()
	if def.Layout.IsCircular() {
		if a := scale.AngularPosition(v, &def); !math.IsNaN(a) {
			r.Angle = &a
		}
	}
	debug.Reading(r.Scale, position, text)
	return r
}

// MarshalJSON writes non-finite values as null; encoding/json rejects
// NaN and infinities.
func (r Reading) MarshalJSON() ([]byte, error) {
	var v *float64
	if !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0) {
		v = &r.Value
	}
	return json.Marshal(struct {
		Scale    string   `json:"scale"`
		Position float64  `json:"position"`
		Value    *float64 `json:"value"`
		Text     string   `json:"text"`
		Angle    *float64 `json:"angle,omitempty"`
	}{r.Scale, r.Position, v, r.Text, r.Angle})
}
