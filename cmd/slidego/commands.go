package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/SlideGo/internal/debug"
	"github.com/cjeanneret/SlideGo/internal/logic/catalog"
	"github.com/cjeanneret/SlideGo/internal/logic/density"
	"github.com/cjeanneret/SlideGo/internal/logic/instrument"
	"github.com/cjeanneret/SlideGo/internal/logic/scale"
	"github.com/cjeanneret/SlideGo/internal/web"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the scales in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := a.definitions(nil)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tFORMULA\tFUNCTION\tBEGIN\tEND\tLAYOUT\tLENGTH")
			for _, d := range defs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%g\t%s\t%g\n",
					d.Name, d.Formula, d.Function.Name(), d.Begin, d.End, d.Layout.Kind, d.PhysicalLength())
			}
			return tw.Flush()
		},
	}
}

type generateOptions struct {
	format  string
	density string
	spacing float64
	every   int
}

// generateOutput is the json/yaml document written by generate.
type generateOutput struct {
	Scale     string           `json:"scale" yaml:"scale"`
	Algorithm string           `json:"algorithm" yaml:"algorithm"`
	Density   string           `json:"density" yaml:"density"`
	Ticks     []scale.TickMark `json:"ticks" yaml:"ticks"`
}

func newGenerateCmd(a *app) *cobra.Command {
	o := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate <scale>",
		Short: "Generate the tick marks of one scale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := a.definitions(args)
			if err != nil {
				return err
			}
			gs, err := scale.New(defs[0], a.cfg.Options())
			if err != nil {
				return err
			}
			policy := a.cfg.DensityPolicy()
			if cmd.Flags().Changed("density") || cmd.Flags().Changed("every") {
				name, every := a.cfg.Labels.Density, a.cfg.Labels.Every
				if cmd.Flags().Changed("density") {
					name = o.density
				}
				if cmd.Flags().Changed("every") {
					every = o.every
				}
				if policy, err = density.ByName(name, every); err != nil {
					return err
				}
			}
			spacing := a.cfg.Labels.MinSpacing
			if cmd.Flags().Changed("spacing") {
				spacing = o.spacing
			}
			ticks := density.Apply(gs, policy, spacing)
			debug.Generated(gs.Name(), len(ticks), gs.Options().Algorithm.String())

			doc := generateOutput{
				Scale:     gs.Name(),
				Algorithm: a.cfg.Algorithm().String(),
				Density:   policy.Name(),
				Ticks:     ticks,
			}
			switch o.format {
			case "json":
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			case "yaml":
				enc := yaml.NewEncoder(a.out)
				defer enc.Close()
				return enc.Encode(doc)
			case "table":
				return writeTicks(a, doc)
			}
			return fmt.Errorf("unknown format %q (table, json, yaml)", o.format)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.format, "format", "f", "table", "output format: table, json or yaml")
	f.StringVar(&o.density, "density", "", "label density policy: none, coarsest, every_nth or greedy")
	f.Float64Var(&o.spacing, "spacing", 0, "minimum physical distance between labels")
	f.IntVar(&o.every, "every", 0, "every_nth stride (0 = derive from spacing)")
	return cmd
}

func writeTicks(a *app, doc generateOutput) error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "VALUE\tPOSITION\tANGLE\tTIER\tHEIGHT\tLABEL\t")
	for _, t := range doc.Ticks {
		angle := ""
		if t.Angle != nil {
			angle = strconv.FormatFloat(*t.Angle, 'f', 3, 64)
		}
		fmt.Fprintf(tw, "%g\t%.6f\t%s\t%d\t%g\t%s\t\n",
			t.Value, t.Position, angle, t.Tier, t.Height, t.Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %s ticks, %s labels (%s, %s density)\n",
		doc.Scale, humanize.Comma(int64(len(doc.Ticks))), humanize.Comma(int64(density.Labels(doc.Ticks))),
		doc.Algorithm, doc.Density)
	return nil
}

func newReadCmd(a *app) *cobra.Command {
	var pos, angle float64
	cmd := &cobra.Command{
		Use:   "read [scale...]",
		Short: "Read scales under the cursor",
		Long: "Read one or more scales at a normalized cursor position (--pos).\n" +
			"A single circular scale can also be read at an angle in degrees (--angle).",
		RunE: func(cmd *cobra.Command, args []string) error {
			hasPos, hasAngle := cmd.Flags().Changed("pos"), cmd.Flags().Changed("angle")
			if hasPos == hasAngle {
				return fmt.Errorf("exactly one of --pos or --angle is required")
			}
			if hasPos && (math.IsNaN(pos) || math.IsInf(pos, 0)) {
				return fmt.Errorf("--pos must be finite")
			}
			defs, err := a.definitions(args)
			if err != nil {
				return err
			}
			if hasAngle {
				if len(defs) != 1 {
					return fmt.Errorf("--angle needs exactly one scale")
				}
				if !defs[0].Layout.IsCircular() {
					return fmt.Errorf("scale %s is not circular", defs[0].Name)
				}
				v := scale.ValueAtAngle(angle, &defs[0])
				if math.IsNaN(v) {
					return fmt.Errorf("angle %g is outside the arc of %s", angle, defs[0].Name)
				}
				pos = scale.NormalizedPosition(v, &defs[0])
			}
			in, err := instrument.Assemble(defs, a.cfg.Options(), a.cfg.Workers())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCALE\tREADING\tANGLE")
			for _, r := range in.Read(pos) {
				angle := ""
				if r.Angle != nil {
					angle = strconv.FormatFloat(*r.Angle, 'f', 2, 64) + "°"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Scale, r.Text, angle)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Float64Var(&pos, "pos", 0, "normalized cursor position (0 = begin, 1 = end)")
	cmd.Flags().Float64Var(&angle, "angle", 0, "angle in degrees on a circular scale")
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare [scale...]",
		Short: "Compare modulo and legacy tick generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := a.definitions(args)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "SCALE\tMODULO\tLEGACY\tDUPLICATES\t")
			for i := range defs {
				c, err := scale.Compare(&defs[i], a.cfg.Options())
				if err != nil {
					return fmt.Errorf("compare %s: %w", defs[i].Name, err)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", defs[i].Name,
					humanize.Comma(int64(c.Modulo)), humanize.Comma(int64(c.Legacy)), humanize.Comma(int64(c.Duplicates)))
			}
			return tw.Flush()
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check scale definitions for configuration errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cat *catalog.Catalog
			var err error
			if path != "" {
				cat, err = catalog.LoadFile(path)
			} else {
				cat, err = a.catalog()
			}
			if err != nil {
				return err
			}
			if err := cat.Validate(); err != nil {
				errs := multierr.Errors(err)
				for _, e := range errs {
					fmt.Fprintf(a.out, "  %v\n", e)
				}
				return fmt.Errorf("%d problem(s) in %d scales", len(errs), cat.Len())
			}
			fmt.Fprintf(a.out, "%d scales OK: %s\n", cat.Len(), strings.Join(cat.Names(), " "))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "catalog", "", "validate this YAML catalog instead of the configured one")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scale explorer web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				if port <= 0 || port > 65535 {
					return fmt.Errorf("port must be 1-65535, got %d", port)
				}
				a.cfg.Web.Port = port
			}
			defs, err := a.definitions(nil)
			if err != nil {
				return err
			}

			debug.Summary(fmt.Sprintf("SlideGo explorer: %d scales on %s", len(defs), a.cfg.Addr()))
			broadcaster := web.NewStatusBroadcaster()
			debug.AddHook(web.NewLogHook(broadcaster))

			in, err := instrument.Assemble(defs, a.cfg.Options(), a.cfg.Workers())
			if err != nil {
				return err
			}
			srv, err := web.NewServer(a.cfg.Addr(), in, broadcaster, web.ExplorerConfig{
				Algorithm:  a.cfg.Algorithm().String(),
				Density:    a.cfg.Labels.Density,
				MinSpacing: a.cfg.Labels.MinSpacing,
				Every:      a.cfg.Labels.Every,
			})
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := srv.Run(ctx); err != nil {
				return fmt.Errorf("web server: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port, overrides web.port")
	return cmd
}
