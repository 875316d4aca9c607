package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/rickrack/internal/grid"
	"github.com/jmylchreest/rickrack/internal/image"
)

// gridFlags are the grid.Values overrides. Only flags the user set replace
// the configured values.
type gridFlags struct {
	col    int
	ctp    string
	sum    float64
	dim    float64
	assist float64
	rev    bool
}

func addGridFlags(fs *pflag.FlagSet) *gridFlags {
	f := &gridFlags{}
	def := grid.DefaultValues()
	fs.IntVar(&f.col, "col", def.Col, fmt.Sprintf("board columns and rows (%d-%d)", grid.MinCol, grid.MaxCol))
	fs.StringVar(&f.ctp, "ctp", def.CTP, `channels to blend, e.g. "hsv", "hs", "rgb"`)
	fs.Float64Var(&f.sum, "sum", def.SumFactor, fmt.Sprintf("distance exponent (0-%g)", grid.MaxSumFactor))
	fs.Float64Var(&f.dim, "dim", def.DimFactor, "overall weight scale (0-1)")
	fs.Float64Var(&f.assist, "assist", def.AssistFactor, "assistant weight scale (0-1)")
	fs.BoolVar(&f.rev, "rev", def.RevGrid, "weight far anchors more than near ones")
	return f
}

// apply overlays the flags the user set onto base.
func (f *gridFlags) apply(fs *pflag.FlagSet, base grid.Values) grid.Values {
	fs.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "col":
			base.Col = f.col
		case "ctp":
			base.CTP = f.ctp
		case "sum":
			base.SumFactor = f.sum
		case "dim":
			base.DimFactor = f.dim
		case "assist":
			base.AssistFactor = f.assist
		case "rev":
			base.RevGrid = f.rev
		}
	})
	return grid.NormValues(base)
}

type gridOptions struct {
	rule      string
	list      string
	names     string
	locations string
	output    string
	cell      int
	format    string
}

func newGridCmd(g *globals) *cobra.Command {
	opts := &gridOptions{}
	var values *gridFlags

	cmd := &cobra.Command{
		Use:   "grid <hex>",
		Short: "Blend a harmony into a colour board",
		Long: `Blend the five colours of a harmony into a square board. Each cell mixes
the anchors by inverse distance from their locations; --sum sharpens or
softens the falloff and --ctp chooses which channels are blended.

A literal list replaces the blend: its colours fill the board row by row and
the rest is white.

Examples:
  # 9x9 board from a pentad, printed as hex rows
  rickrack grid --rule pentad 3A7BD5

  # 25x25 board blending only hue and saturation, saved as PNG
  rickrack grid --col 25 --ctp hs --output board.png 3A7BD5

  # Literal board with names
  rickrack grid --col 2 --list 112233,445566 --names ink,sea FFFFFF`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrid(cmd, g, opts, values, args[0])
		},
	}

	values = addGridFlags(cmd.Flags())
	cmd.Flags().StringVarP(&opts.rule, "rule", "r", "", "harmony rule (default from config)")
	cmd.Flags().StringVar(&opts.list, "list", "", "comma-separated literal hex colours")
	cmd.Flags().StringVar(&opts.names, "names", "", "comma-separated names for the literal colours")
	cmd.Flags().StringVar(&opts.locations, "locations", "", "anchor locations as x,y pairs separated by ';' (5 pairs)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the board as PNG to this file")
	cmd.Flags().IntVar(&opts.cell, "cell", image.DefaultCellSize, "PNG cell size in pixels")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "hex", "output format (hex, json)")
	addPreviewFlag(cmd)
	return cmd
}

func runGrid(cmd *cobra.Command, g *globals, opts *gridOptions, values *gridFlags, hex string) error {
	sess, err := buildSession(g, hex, opts.rule, "", nil)
	if err != nil {
		return err
	}

	sess.SetGridValues(values.apply(cmd.Flags(), g.cfg.Grid))
	if opts.locations != "" {
		pts, err := parseLocations(opts.locations)
		if err != nil {
			return err
		}
		sess.SetGridLocations(pts)
	}
	if opts.list != "" {
		sess.SetGridList(grid.Literal{
			Hexes: splitList(opts.list),
			Names: splitList(opts.names),
		})
	}
	sess.Backup()

	board := sess.Board()
	g.logger.Debug("board synthesized", "col", board.Col, "ctp", sess.GridParams().Values.CTP)

	if opts.output != "" {
		if err := image.SaveBoard(opts.output, board, opts.cell); err != nil {
			return err
		}
		g.logger.Info("board written", "path", opts.output)
		return nil
	}

	out := cmd.OutOrStdout()
	switch opts.format {
	case "hex":
		writeBoard(out, board, previewEnabled(cmd))
	case "json":
		doc := struct {
			Col    int      `json:"col"`
			Colors []string `json:"colors"`
			Names  []string `json:"names,omitempty"`
		}{board.Col, board.Hexes(), board.Names}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode board: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format: %s (supported: hex, json)", opts.format)
	}
	return nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// parseLocations parses "x,y;x,y;..." into points.
func parseLocations(s string) ([]grid.Point, error) {
	var pts []grid.Point
	for _, pair := range strings.Split(s, ";") {
		xs, ys, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("invalid location %q: expected x,y", pair)
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("invalid location %q: expected numbers", pair)
		}
		pts = append(pts, grid.Point{X: x, Y: y})
	}
	return pts, nil
}
