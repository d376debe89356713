package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/SlideGo/internal/logic/density"
	"github.com/cjeanneret/SlideGo/internal/logic/scale"
)

// MaxConfigFileBytes bounds the size of a config file read by Load.
const MaxConfigFileBytes = 1 << 20

// DefaultPort is used when web.port is unset.
const DefaultPort = 8080

// EngineConfig tunes tick generation for every scale.
type EngineConfig struct {
	Algorithm           string  `yaml:"algorithm"`             // "modulo" (default) or "legacy"
	MinSeparation       float64 `yaml:"min_separation"`        // normalized; 0 = built-in default
	KeepCircularOverlap bool    `yaml:"keep_circular_overlap"` // keep the end tick of full-turn discs
	PrecisionMultiplier int64   `yaml:"precision_multiplier"`  // force P; 0 = per definition / auto
	MaxCandidates       int     `yaml:"max_candidates"`        // per subsection guard; 0 = default
	Workers             int     `yaml:"workers"`               // parallel generation; 0 = GOMAXPROCS
}

// LabelsConfig holds the default label density policy.
type LabelsConfig struct {
	Density    string  `yaml:"density"`     // none, coarsest, every_nth, greedy
	MinSpacing float64 `yaml:"min_spacing"` // physical units between labels (greedy, every_nth auto)
	Every      int     `yaml:"every"`       // every_nth stride; 0 = derive from spacing
}

// CatalogConfig points at extra scale definitions and narrows the set used.
type CatalogConfig struct {
	Path   string   `yaml:"path"`   // YAML merged over the built-in catalog
	Scales []string `yaml:"scales"` // instrument order; empty = whole catalog
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
}

// WebConfig configures the explorer server.
type WebConfig struct {
	Port int `yaml:"port"`
}

// Config aggregates all application configuration.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Labels   LabelsConfig   `yaml:"labels"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Web      WebConfig      `yaml:"web"`

	algorithm scale.Algorithm
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	if err := cfg.normalize(); err != nil {
		panic(err)
	}
	return cfg
}

// ValidateConfigPath accepts only .yaml files that sit directly in a
// configs/ directory, with no parent references.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain \"..\"", path)
		}
	}
	clean := filepath.Clean(path)
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config path %q must end in .yaml", path)
	}
	if filepath.Base(filepath.Dir(clean)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if info.Size() > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file is %d bytes, limit is %d", info.Size(), MaxConfigFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize checks ranges and fills defaults in place.
func (c *Config) normalize() error {
	algo, err := scale.ParseAlgorithm(c.Engine.Algorithm)
	if err != nil {
		return fmt.Errorf("engine.algorithm: %w", err)
	}
	c.algorithm = algo
	c.Engine.Algorithm = algo.String()

	if c.Engine.MinSeparation < 0 || c.Engine.MinSeparation >= 1 {
		return fmt.Errorf("engine.min_separation must be in [0, 1), got %v", c.Engine.MinSeparation)
	}
	if c.Engine.PrecisionMultiplier < 0 {
		return fmt.Errorf("engine.precision_multiplier must be >= 0, got %d", c.Engine.PrecisionMultiplier)
	}
	if c.Engine.MaxCandidates < 0 {
		return fmt.Errorf("engine.max_candidates must be >= 0, got %d", c.Engine.MaxCandidates)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers must be >= 0, got %d", c.Engine.Workers)
	}

	if c.Labels.Density == "" {
		c.Labels.Density = "none"
	}
	if c.Labels.Every < 0 {
		return fmt.Errorf("labels.every must be >= 0, got %d", c.Labels.Every)
	}
	if _, err := density.ByName(c.Labels.Density, c.Labels.Every); err != nil {
		return fmt.Errorf("labels.density: %w", err)
	}
	if c.Labels.MinSpacing < 0 {
		return fmt.Errorf("labels.min_spacing must be >= 0, got %v", c.Labels.MinSpacing)
	}
	if c.Labels.MinSpacing == 0 {
		c.Labels.MinSpacing = 4 // about one label width in mm
	}

	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port must be between 0 and 65535, got %d", c.Web.Port)
	}
	if c.Web.Port == 0 {
		c.Web.Port = DefaultPort
	}
	return nil
}

// Options returns the generation options described by the engine section.
func (c *Config) Options() scale.Options {
	return scale.Options{
		Algorithm:           c.algorithm,
		MinSeparation:       c.Engine.MinSeparation,
		KeepCircularOverlap: c.Engine.KeepCircularOverlap,
		PrecisionMultiplier: c.Engine.PrecisionMultiplier,
		MaxCandidates:       c.Engine.MaxCandidates,
	}
}

// Algorithm returns the parsed generation algorithm.
func (c *Config) Algorithm() scale.Algorithm {
	return c.algorithm
}

// SetAlgorithm overrides the algorithm, e.g. from a command-line flag.
func (c *Config) SetAlgorithm(a scale.Algorithm) {
	c.algorithm = a
	c.Engine.Algorithm = a.String()
}

// DensityPolicy resolves the labels section into a policy.
func (c *Config) DensityPolicy() density.Policy {
	p, err := density.ByName(c.Labels.Density, c.Labels.Every)
	if err != nil {
		return density.None{}
	}
	return p
}

// Workers returns the generation worker count (0 = GOMAXPROCS).
func (c *Config) Workers() int {
	return c.Engine.Workers
}

// Addr returns the listen address for the explorer server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Web.Port)
}
