package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cjeanneret/SlideGo/internal/config"
	"github.com/cjeanneret/SlideGo/internal/debug"
	"github.com/cjeanneret/SlideGo/internal/logic/catalog"
	"github.com/cjeanneret/SlideGo/internal/logic/scale"
)

var defaultConfigPath = filepath.Join("configs", "slidego.yaml")

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand.
type app struct {
	out        io.Writer
	logOut     io.Writer
	cfgPath    string
	debugLevel int
	algorithm  algorithmFlag

	cfg *config.Config
}

func newRootCmd(out, logOut io.Writer) *cobra.Command {
	a := &app{out: out, logOut: logOut}

	root := &cobra.Command{
		Use:           "slidego",
		Short:         "Generate and read slide rule scales",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Flags())
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", defaultConfigPath, "path to config file (must live in a configs/ directory)")
	pf.IntVar(&a.debugLevel, "debug", -1, "debug level 0-4, overrides defaults.debug_level")
	pf.Var(&a.algorithm, "algorithm", "tick algorithm: modulo or legacy, overrides engine.algorithm")

	root.AddCommand(
		newListCmd(a),
		newGenerateCmd(a),
		newReadCmd(a),
		newCompareCmd(a),
		newValidateCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup loads the config, applies flag overrides and starts logging.
func (a *app) setup(flags *pflag.FlagSet) error {
	cfg, err := a.loadConfig(flags.Changed("config"))
	if err != nil {
		return err
	}
	if a.algorithm.set {
		cfg.SetAlgorithm(a.algorithm.value)
	}
	if a.debugLevel >= 0 {
		if a.debugLevel > debug.LevelTrace {
			return fmt.Errorf("--debug must be between 0 and 4, got %d", a.debugLevel)
		}
		cfg.Defaults.DebugLevel = a.debugLevel
	}
	a.cfg = cfg

	debug.SetOutput(a.logOut)
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Step(1, "load config")
	debug.Value("Config path", a.cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.Step(2, "apply flag overrides")
	debug.Value("Algorithm", cfg.Algorithm())
	debug.PrintStruct("Engine", cfg.Engine)
	debug.PrintStruct("Labels", cfg.Labels)
	return nil
}

// loadConfig reads the config file. The default path may be absent, in
// which case built-in defaults apply; an explicit path must exist.
func (a *app) loadConfig(explicit bool) (*config.Config, error) {
	if err := config.ValidateConfigPath(a.cfgPath); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return cfg, nil
}

// catalog returns the built-in catalog with catalog.path merged over it.
func (a *app) catalog() (*catalog.Catalog, error) {
	cat := catalog.Standard()
	if p := a.cfg.Catalog.Path; p != "" {
		extra, err := catalog.LoadFile(p)
		if err != nil {
			return nil, err
		}
		cat = cat.Merge(extra)
	}
	return cat, nil
}

// definitions resolves names against the catalog. Without names it
// falls back to catalog.scales, then to every scale.
func (a *app) definitions(names []string) ([]scale.Definition, error) {
	cat, err := a.catalog()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = a.cfg.Catalog.Scales
	}
	if len(names) == 0 {
		return cat.Definitions(), nil
	}
	return cat.Select(names...)
}

// algorithmFlag implements pflag.Value for --algorithm.
type algorithmFlag struct {
	value scale.Algorithm
	set   bool
}

func (f *algorithmFlag) String() string {
	if !f.set {
		return ""
	}
	return f.value.String()
}

func (f *algorithmFlag) Set(s string) error {
	a, err := scale.ParseAlgorithm(s)
	if err != nil {
		return err
	}
	f.value = a
	f.set = true
	return nil
}

func (f *algorithmFlag) Type() string { return "algorithm" }
