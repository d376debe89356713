package scale

import "math"

// Comparison summarises legacy and modulo output for the same definition.
type Comparison struct {
	Modulo int `json:"modulo" yaml:"modulo"`
	Legacy int `json:"legacy" yaml:"legacy"`
	// Duplicates counts legacy ticks that land within MinSeparation of
	// the tick before them.
	Duplicates int `json:"duplicates" yaml:"duplicates"`
}

// Compare runs both algorithms on def.
func Compare(def *Definition, opts Options) (Comparison, error) {
	opts = opts.withDefaults()

	mod := opts
	mod.Algorithm = Modulo
	modTicks, err := GenerateTickMarks(def, mod)
	if err != nil {
		return Comparison{}, err
	}

	leg := opts
	leg.Algorithm = Legacy
	legTicks, err := GenerateTickMarks(def, leg)
	if err != nil {
		return Comparison{}, err
	}

	c := Comparison{Modulo: len(modTicks), Legacy: len(legTicks)}
	for i := 1; i < len(legTicks); i++ {
		if math.Abs(legTicks[i].Position-legTicks[i-1].Position) < opts.MinSeparation {
			c.Duplicates++
		}
	}
	return c, nil
}
