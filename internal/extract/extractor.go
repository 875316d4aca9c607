// Package extract picks five representative colours from an image.
//
// The pipeline is a heuristic: it samples the image, drops near-grey and
// near-black noise, narrows the sample to the requested contrast band,
// clusters the remaining hues around a randomly chosen pivot and returns one
// real pixel per cluster together with where it was found. Every random
// choice is drawn from Options.Rand so results can be pinned.
package extract

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/rickrack/internal/colour"
	"github.com/jmylchreest/rickrack/internal/grid"
	"github.com/jmylchreest/rickrack/internal/harmony"
)

// ColorType selects the contrast band the palette is drawn from.
type ColorType int

const (
	// TypeAuto picks vivid, muted or dark from the image's median S and V.
	TypeAuto ColorType = -1

	TypeVivid ColorType = 0
	TypeMuted ColorType = 1
	TypeDark  ColorType = 2

	// TypeAutoVivid clusters one hue group on value.
	TypeAutoVivid ColorType = 3
	// TypeAutoMuted clusters one hue group on saturation.
	TypeAutoMuted ColorType = 4
)

var colorTypeNames = map[ColorType]string{
	TypeAuto:      "auto",
	TypeVivid:     "vivid",
	TypeMuted:     "muted",
	TypeDark:      "dark",
	TypeAutoVivid: "auto-vivid",
	TypeAutoMuted: "auto-muted",
}

// ValidColorTypes returns every colour type in code order.
func ValidColorTypes() []ColorType {
	return []ColorType{TypeAuto, TypeVivid, TypeMuted, TypeDark, TypeAutoVivid, TypeAutoMuted}
}

func (t ColorType) String() string {
	if name, ok := colorTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ColorType(%d)", int(t))
}

// IsAuto reports whether the type clusters within a single hue group.
func (t ColorType) IsAuto() bool {
	return t >= TypeAutoVivid
}

// ParseColorType accepts a name ("vivid") or an integer code ("0").
func ParseColorType(s string) (ColorType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range colorTypeNames {
		if s == name {
			return t, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		return normColorType(ColorType(n)), nil
	}
	return TypeAuto, fmt.Errorf("unknown color type: %q (valid types: %v)", s, ValidColorTypes())
}

func normColorType(t ColorType) ColorType {
	if t < TypeAuto || t > TypeAutoMuted {
		return TypeAuto
	}
	return t
}

// DefaultSamples is the target number of sampled pixels.
const DefaultSamples = 4000

// Options controls a single extraction.
type Options struct {
	// Samples is the target sample count. Images larger than 1.5× this
	// are subsampled on an even grid.
	Samples int

	// ColorType selects the contrast band.
	ColorType ColorType

	// Artist clusters hues on the RYB artist wheel instead of the RGB wheel.
	Artist bool

	// Extend scales the minimum share of the sample a filter must keep.
	Extend float64

	// Rand drives every random choice. A nil Rand is seeded from the clock.
	Rand *rand.Rand
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Samples:   DefaultSamples,
		ColorType: TypeAuto,
		Extend:    1,
	}
}

func (o Options) norm() Options {
	if o.Samples < 1 {
		o.Samples = DefaultSamples
	}
	o.ColorType = normColorType(o.ColorType)
	if !(o.Extend > 0) {
		o.Extend = 1
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// Pixels is a row-major RGB raster.
type Pixels struct {
	Width, Height int
	RGB           [][3]uint8
}

// NewPixels allocates a black raster.
func NewPixels(width, height int) Pixels {
	return Pixels{Width: width, Height: height, RGB: make([][3]uint8, width*height)}
}

// At returns the pixel in column x of row y.
func (p Pixels) At(x, y int) [3]uint8 {
	return p.RGB[y*p.Width+x]
}

// Set writes the pixel in column x of row y.
func (p Pixels) Set(x, y int, rgb [3]uint8) {
	p.RGB[y*p.Width+x] = rgb
}

// Len returns the number of pixels.
func (p Pixels) Len() int {
	if p.Width <= 0 || p.Height <= 0 || len(p.RGB) < p.Width*p.Height {
		return 0
	}
	return p.Width * p.Height
}

// Result is the extracted palette and where each colour was found, as
// normalised image coordinates.
type Result struct {
	Colors    [harmony.Slots]colour.Color
	Locations [harmony.Slots]grid.Point
}

// Hexes returns the palette as 6-digit hex strings.
func (r Result) Hexes() [harmony.Slots]string {
	var out [harmony.Slots]string
	for i, c := range r.Colors {
		out[i] = c.Hex()
	}
	return out
}

// Extractor runs the pipeline with fixed options.
type Extractor struct {
	opts          Options
	maxIterations int
}

// NewExtractor creates an Extractor. Out-of-range options are normalised.
func NewExtractor(opts Options) *Extractor {
	return &Extractor{
		opts:          opts.norm(),
		maxIterations: 100,
	}
}

// Extract is shorthand for NewExtractor(opts).Extract(px).
func Extract(px Pixels, opts Options) Result {
	return NewExtractor(opts).Extract(px)
}

// Extract returns exactly five colours and locations for any raster,
// falling back to random choices where the image cannot support more.
func (e *Extractor) Extract(px Pixels) Result {
	rng := e.opts.Rand
	n := px.Len()
	if n < minSample {
		return e.tiny(px)
	}

	s := subsample(px, e.opts.Samples)
	s = pad(s, minSample)
	minKeep := max(float64(minSample), 0.05*e.opts.Extend*float64(len(s)))

	s = dropGreys(s, minKeep)

	ct := e.opts.ColorType
	if ct == TypeAuto {
		ct = detectType(s)
	}
	if len(s) > 12 {
		s = contrastFilter(s, ct, minKeep)
	}

	if e.opts.Artist {
		s = toArtist(s)
	}

	s = unique(s)
	pivot := pickPivot(s, rng)
	hues := pivoted(s, pivot)
	centres, members := cluster(hues, harmony.Slots, e.maxIterations)

	var picked [harmony.Slots]sample
	if ct.IsAuto() {
		picked = e.pickAuto(s, members, ct, rng)
	} else {
		picked = pickByHue(s, hues, centres, members, ct)
	}

	rgb := make([][3]float64, len(picked))
	for i, p := range picked {
		rgb[i] = p.rgb
	}
	if e.opts.Artist {
		rgb = colour.RYBToRGBArray(rgb)
	}

	var res Result
	for i, v := range rgb {
		res.Colors[i] = colour.New(v, colour.SpaceRGB, colour.Cutoff)
	}
	res.Locations = locate(px, res.Colors, rng)
	return res
}

// tiny handles rasters with fewer pixels than the minimum sample: each slot
// takes a random location and the pixel under it, or a random colour when
// the raster is empty.
func (e *Extractor) tiny(px Pixels) Result {
	rng := e.opts.Rand
	var res Result
	for i := range res.Locations {
		pt := grid.Point{X: rng.Float64(), Y: rng.Float64()}
		res.Locations[i] = pt
		if px.Len() == 0 {
			res.Colors[i] = colour.FromHSV(rng.Float64()*360, rng.Float64(), rng.Float64())
			continue
		}
		x := colour.ClampInt(int(pt.X*float64(px.Width)), 0, px.Width-1)
		y := colour.ClampInt(int(pt.Y*float64(px.Height)), 0, px.Height-1)
		rgb := px.At(x, y)
		res.Colors[i] = colour.FromRGB(int(rgb[0]), int(rgb[1]), int(rgb[2]))
	}
	return res
}
