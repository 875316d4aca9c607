package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/rickrack/internal/colour"
	"github.com/jmylchreest/rickrack/internal/extract"
	"github.com/jmylchreest/rickrack/internal/grid"
	"github.com/jmylchreest/rickrack/internal/image"
	"github.com/jmylchreest/rickrack/internal/seed"
)

type extractOptions struct {
	samples   int
	colorType string
	artist    bool
	seedMode  string
	seedValue int64
	format    string
	output    string
}

func newExtractCmd(g *globals) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Extract a five-colour palette from an image",
		Long: `Extract five representative colours from an image, and the point in the
image each colour was taken from.

The image may be a local file or an HTTPS URL.

Supported image formats: ` + strings.Join(image.SupportedImageExtensions(), ", ") + `
Colour types: ` + joinColorTypes() + `

Seed modes (the extraction makes random choices):
  content   derive the seed from the pixels, so an image always gives the same result
  filepath  derive the seed from the path
  manual    use --seed
  random    differ every run

Examples:
  # Extract with the configured colour type
  rickrack extract wallpaper.jpg

  # Muted palette on the artist (RYB) wheel, as JSON
  rickrack extract --type muted --artist --format json wallpaper.png

  # Pin the random choices
  rickrack extract --seed 42 wallpaper.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, g, opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.samples, "samples", 0, "pixels sampled from the image (default from config)")
	cmd.Flags().StringVarP(&opts.colorType, "type", "t", "", "colour type: name or number (default from config)")
	cmd.Flags().BoolVar(&opts.artist, "artist", false, "group hues on the artist (RYB) wheel")
	cmd.Flags().StringVar(&opts.seedMode, "seed-mode", "", "seed mode: "+joinSeedModes())
	cmd.Flags().Int64Var(&opts.seedValue, "seed", 0, "manual seed (implies --seed-mode manual)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "hex", "output format (hex, json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	addPreviewFlag(cmd)
	return cmd
}

// extractReport is the JSON output of the extract command.
type extractReport struct {
	Image     string       `json:"image"`
	Seed      int64        `json:"seed"`
	ColorType string       `json:"color_type"`
	Colors    []string     `json:"colors"`
	Locations []grid.Point `json:"locations"`
}

func runExtract(cmd *cobra.Command, g *globals, opts *extractOptions, path string) error {
	eopts, err := extractSettings(cmd, g, opts)
	if err != nil {
		return err
	}
	seedCfg, err := seedSettings(cmd, g, opts)
	if err != nil {
		return err
	}

	logger := g.logger.Named("extract")
	logger.Debug("loading image", "path", path)
	img, err := image.Load(cmd.Context(), path)
	if err != nil {
		return err
	}
	px := image.ToPixels(img)
	logger.Debug("image loaded", "width", px.Width, "height", px.Height)

	rng, seedValue, err := seed.New(px, path, seedCfg)
	if err != nil {
		return fmt.Errorf("failed to seed random source: %w", err)
	}
	eopts.Rand = rng
	logger.Debug("extracting", "samples", eopts.Samples, "type", eopts.ColorType, "artist", eopts.Artist, "seed", seedValue)

	res := extract.Extract(px, eopts)

	var output string
	switch opts.format {
	case "hex":
		output = formatExtractHex(res, previewEnabled(cmd) && opts.output == "")
	case "json":
		hexes := res.Hexes()
		report := extractReport{
			Image:     path,
			Seed:      seedValue,
			ColorType: eopts.ColorType.String(),
			Colors:    hexes[:],
			Locations: res.Locations[:],
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode palette: %w", err)
		}
		output = string(data) + "\n"
	default:
		return fmt.Errorf("unsupported format: %s (supported: hex, json)", opts.format)
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		logger.Info("palette written", "path", opts.output)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

// extractSettings merges extraction flags over the configuration.
func extractSettings(cmd *cobra.Command, g *globals, opts *extractOptions) (extract.Options, error) {
	eopts := extract.DefaultOptions()
	eopts.Samples = g.cfg.Extract.Samples
	eopts.ColorType = extract.ColorType(g.cfg.Extract.ColorType)
	eopts.Artist = g.cfg.Extract.Artist
	eopts.Extend = g.cfg.Extract.Extend

	if cmd.Flags().Changed("samples") {
		if opts.samples < 1 {
			return eopts, fmt.Errorf("invalid sample count: %d (must be positive)", opts.samples)
		}
		eopts.Samples = opts.samples
	}
	if opts.colorType != "" {
		t, err := extract.ParseColorType(opts.colorType)
		if err != nil {
			return eopts, err
		}
		eopts.ColorType = t
	}
	if cmd.Flags().Changed("artist") {
		eopts.Artist = opts.artist
	}
	return eopts, nil
}

// seedSettings merges seed flags over the configuration.
func seedSettings(cmd *cobra.Command, g *globals, opts *extractOptions) (seed.Config, error) {
	cfg := g.cfg.Seed
	if cmd.Flags().Changed("seed") {
		v := opts.seedValue
		cfg.Value = &v
		cfg.Mode = seed.ModeManual
	}
	if opts.seedMode != "" {
		mode, err := seed.ParseMode(opts.seedMode)
		if err != nil {
			return cfg, err
		}
		cfg.Mode = mode
	}
	return cfg, nil
}

func formatExtractHex(res extract.Result, preview bool) string {
	table := NewTable([]string{"Slot", "Hex", "X", "Y"})
	if preview {
		table = NewTable([]string{"Slot", "Hex", "X", "Y", "Swatch"})
	}
	for i, c := range res.Colors {
		loc := res.Locations[i]
		row := []string{fmt.Sprint(i), c.Hex(), fmt.Sprintf("%.3f", loc.X), fmt.Sprintf("%.3f", loc.Y)}
		if preview {
			row = append(row, colour.ColourPreview(c, 8))
		}
		table.AddRow(row)
	}
	return table.Render()
}

func joinColorTypes() string {
	names := make([]string, 0, len(extract.ValidColorTypes()))
	for _, t := range extract.ValidColorTypes() {
		names = append(names, fmt.Sprintf("%s (%d)", t, int(t)))
	}
	return strings.Join(names, ", ")
}

func joinSeedModes() string {
	names := make([]string, 0, len(seed.ValidModes()))
	for _, m := range seed.ValidModes() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}
