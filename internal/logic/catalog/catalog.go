// Package catalog holds named scale definitions authored as YAML. The
// built-in set is embedded in the binary; users can load their own files
// with the same schema and merge them over it.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/SlideGo/internal/debug"
	"github.com/cjeanneret/SlideGo/internal/logic/format"
	"github.com/cjeanneret/SlideGo/internal/logic/function"
	"github.com/cjeanneret/SlideGo/internal/logic/scale"
)

//go:embed catalog.yaml
var standardYAML []byte

var (
	ErrUnknownScale     = errors.New("unknown scale")
	ErrUnknownFunction  = errors.New("unknown scale function")
	ErrUnknownFormatter = errors.New("unknown label formatter")
	ErrDuplicateScale   = errors.New("duplicate scale name")
)

// DefaultLength is used for linear scales when neither the scale nor the
// file gives a length.
const DefaultLength = 250.0

// File is the YAML document layout.
type File struct {
	Length float64 `yaml:"length"`
	Scales []Entry `yaml:"scales"`
}

// Entry describes one scale in a catalog file.
type Entry struct {
	Name        string            `yaml:"name"`
	Formula     string            `yaml:"formula"`
	Function    string            `yaml:"function"`
	Begin       float64           `yaml:"begin"`
	End         float64           `yaml:"end"`
	Length      float64           `yaml:"length"`
	Layout      LayoutEntry       `yaml:"layout"`
	Direction   string            `yaml:"direction"`
	Formatter   string            `yaml:"formatter"`
	Precision   int               `yaml:"precision"`
	Multiplier  int64             `yaml:"multiplier"`
	TierHeights []float64         `yaml:"tier_heights"`
	Subsections []SubsectionEntry `yaml:"subsections"`
}

// LayoutEntry is "linear" (the default) or "circular".
type LayoutEntry struct {
	Kind     string  `yaml:"kind"`
	Diameter float64 `yaml:"diameter"`
	Radius   float64 `yaml:"radius"`
	Cycle    float64 `yaml:"cycle"`
}

// SubsectionEntry is one subsection. A null interval (~) disables its
// tier.
type SubsectionEntry struct {
	Start     float64    `yaml:"start"`
	Intervals []*float64 `yaml:"intervals"`
	Labels    []int      `yaml:"labels"`
	Formatter string     `yaml:"formatter"`
	Places    int        `yaml:"places"`
}

// Catalog is an ordered, name-indexed set of definitions. It is not
// modified after construction.
type Catalog struct {
	defs  []scale.Definition
	index map[string]int
}

var standard = sync.OnceValues(func() (*Catalog, error) {
	return parse(standardYAML)
})

// Standard returns the built-in catalog. It panics if the embedded file
// is broken, which the package tests rule out.
func Standard() *Catalog {
	c, err := standard()
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog.yaml: %v", err))
	}
	return c
}

// Load parses a catalog document.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parse(data)
}

// LoadFile parses the catalog at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	debug.Info("Loaded %d scales from %s", c.Len(), path)
	return c, nil
}

func parse(data []byte) (*Catalog, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	length := file.Length
	if length <= 0 {
		length = DefaultLength
	}

	defs := make([]scale.Definition, 0, len(file.Scales))
	var errs error
	for i, e := range file.Scales {
		def, err := e.Definition(length)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("scales[%d]: %w", i, err))
			continue
		}
		defs = append(defs, def)
	}
	if errs != nil {
		return nil, errs
	}
	c, err := New(defs...)
	if err != nil {
		return nil, err
	}
	debug.Verbose("catalog: parsed %d scales: %s", c.Len(), strings.Join(c.Names(), " "))
	return c, nil
}

// Definition converts e into a scale definition. defaultLength applies to
// linear scales that omit a length.
func (e Entry) Definition(defaultLength float64) (scale.Definition, error) {
	def := scale.Definition{
		Name:        e.Name,
		Formula:     e.Formula,
		Begin:       e.Begin,
		End:         e.End,
		Length:      e.Length,
		Precision:   e.Precision,
		Multiplier:  e.Multiplier,
		TierHeights: e.TierHeights,
	}
	if e.Name == "" {
		return def, errors.New("name is required")
	}

	fn, ok := function.ByName(e.Function)
	if !ok {
		return def, fmt.Errorf("%s: %w %q (known: %s)", e.Name, ErrUnknownFunction, e.Function,
			strings.Join(function.Names(), ", "))
	}
	def.Function = fn

	switch strings.ToLower(e.Layout.Kind) {
	case "", "linear":
		if def.Length <= 0 {
			def.Length = defaultLength
		}
		def.Layout = scale.Linear(def.Length)
	case "circular":
		def.Layout = scale.Circular(e.Layout.Diameter, e.Layout.Radius)
		if e.Layout.Cycle > 0 {
			def.Layout.Cycle = e.Layout.Cycle
		}
	default:
		return def, fmt.Errorf("%s: unknown layout %q", e.Name, e.Layout.Kind)
	}

	switch strings.ToLower(e.Direction) {
	case "", "up":
		def.Direction = scale.TicksUp
	case "down":
		def.Direction = scale.TicksDown
	default:
		return def, fmt.Errorf("%s: unknown direction %q", e.Name, e.Direction)
	}

	if e.Formatter != "" {
		f, err := format.ByName(e.Formatter)
		if err != nil {
			return def, fmt.Errorf("%s: %w: %v", e.Name, ErrUnknownFormatter, err)
		}
		def.Formatter = f
	}

	for i, s := range e.Subsections {
		sub, err := s.subsection()
		if err != nil {
			return def, fmt.Errorf("%s: subsections[%d]: %w", e.Name, i, err)
		}
		def.Subsections = append(def.Subsections, sub)
	}
	return def, nil
}

func (s SubsectionEntry) subsection() (scale.Subsection, error) {
	sub := scale.Subsection{Start: s.Start, Places: s.Places}
	sub.Intervals = make([]float64, len(s.Intervals))
	for t, iv := range s.Intervals {
		if iv != nil {
			sub.Intervals[t] = *iv
		}
	}
	if len(s.Labels) > 0 {
		tiers := make([]scale.Tier, 0, len(s.Labels))
		for _, l := range s.Labels {
			if l < 0 {
				return sub, fmt.Errorf("negative label tier %d", l)
			}
			tiers = append(tiers, scale.Tier(l))
		}
		sub.Labels = scale.LabelTiers(tiers...)
	}
	if s.Formatter != "" {
		f, err := format.ByName(s.Formatter)
		if err != nil {
			return sub, fmt.Errorf("%w: %v", ErrUnknownFormatter, err)
		}
		sub.Formatter = f
	}
	return sub, nil
}

// New builds a catalog from definitions, keeping their order.
func New(defs ...scale.Definition) (*Catalog, error) {
	c := &Catalog{
		defs:  make([]scale.Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if _, dup := c.index[d.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScale, d.Name)
		}
		c.index[d.Name] = len(c.defs)
		c.defs = append(c.defs, d.Clone())
	}
	return c, nil
}

// Len returns the number of scales.
func (c *Catalog) Len() int { return len(c.defs) }

// Names returns the scale names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.defs))
	for i, d := range c.defs {
		names[i] = d.Name
	}
	return names
}

// Lookup returns a copy of the named definition.
func (c *Catalog) Lookup(name string) (scale.Definition, error) {
	i, ok := c.index[name]
	if !ok {
		return scale.Definition{}, fmt.Errorf("%w: %q", ErrUnknownScale, name)
	}
	return c.defs[i].Clone(), nil
}

// Select returns copies of the named definitions in the order given. An
// empty list selects every scale.
func (c *Catalog) Select(names ...string) ([]scale.Definition, error) {
	if len(names) == 0 {
		return c.Definitions(), nil
	}
	out := make([]scale.Definition, 0, len(names))
	for _, n := range names {
		d, err := c.Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Definitions returns copies of every definition in catalog order.
func (c *Catalog) Definitions() []scale.Definition {
	out := make([]scale.Definition, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.Clone()
	}
	return out
}

// Merge returns a new catalog where scales from other replace those with
// the same name and the rest are appended.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	m := &Catalog{
		defs:  c.Definitions(),
		index: make(map[string]int, len(c.defs)+other.Len()),
	}
	for k, v := range c.index {
		m.index[k] = v
	}
	for _, d := range other.defs {
		if i, ok := m.index[d.Name]; ok {
			debug.Verbose("catalog: %s overridden", d.Name)
			m.defs[i] = d.Clone()
			continue
		}
		m.index[d.Name] = len(m.defs)
		m.defs = append(m.defs, d.Clone())
	}
	return m
}

// Validate runs scale validation over every definition and combines all
// violations into one error.
func (c *Catalog) Validate() error {
	var errs []error
	for i := range c.defs {
		errs = append(errs, scale.Validate(&c.defs[i])...)
	}
	return multierr.Combine(errs...)
}
