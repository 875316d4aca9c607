// Package grid synthesizes the colour board: a col × col lattice whose cells
// blend the five anchors of a colour set by inverse-distance weighting.
//
// Every parameter type here is normalised rather than validated. Out-of-range
// numbers are clamped and wrong-shaped slices are replaced by their defaults,
// so Synthesize never fails for well-typed input.
package grid

import (
	"math"
	"strings"

	"github.com/jmylchreest/rickrack/internal/colour"
	"github.com/jmylchreest/rickrack/internal/harmony"
)

// Limits for Values fields.
const (
	MinCol = 1
	MaxCol = 51

	MaxSumFactor = 5.0
)

// Point is a location in the unit square.
type Point struct {
	X float64 `json:"x" toml:"x"`
	Y float64 `json:"y" toml:"y"`
}

// Clamp returns p restricted to [0,1]².
func (p Point) Clamp() Point {
	return Point{X: colour.Clamp(p.X, 0, 1), Y: colour.Clamp(p.Y, 0, 1)}
}

// Assistant is a satellite colour tied to an anchor. Its point sits at the
// anchor's location plus Offset. With Relative set, HSV is a delta applied
// to the anchor; otherwise it is an absolute colour.
type Assistant struct {
	Offset   Point      `json:"offset"`
	HSV      [3]float64 `json:"hsv"`
	Relative bool       `json:"relative"`
}

// Colour resolves the assistant against its anchor.
func (a Assistant) Colour(anchor colour.Color) colour.Color {
	if a.Relative {
		return anchor.Shift(a.HSV[0], a.HSV[1], a.HSV[2], colour.Cutoff)
	}
	return colour.FromHSV(a.HSV[0], a.HSV[1], a.HSV[2])
}

// Values are the shaping factors of the synthesis.
type Values struct {
	// Col is the number of columns (and rows) of the board.
	Col int `json:"col" toml:"col"`

	// CTP names the channels that are synthesized, e.g. "hsv", "hs" or "rgb".
	// Channels not named are held at anchor 0's value.
	CTP string `json:"ctp" toml:"ctp"`

	// SumFactor is the exponent applied to squared distances.
	SumFactor float64 `json:"sum_factor" toml:"sum_factor"`

	// DimFactor scales every weight after normalisation.
	DimFactor float64 `json:"dim_factor" toml:"dim_factor"`

	// AssistFactor scales the weights of assistant points.
	AssistFactor float64 `json:"assist_factor" toml:"assist_factor"`

	// RevGrid makes distant points heavier than near ones.
	RevGrid bool `json:"rev_grid" toml:"rev_grid"`
}

// DefaultValues returns the values of a fresh session.
func DefaultValues() Values {
	return Values{
		Col:          9,
		CTP:          "hsv",
		SumFactor:    1.0,
		DimFactor:    1.0,
		AssistFactor: 0.5,
	}
}

// NormValues clamps every field of v into its range.
func NormValues(v Values) Values {
	def := DefaultValues()
	return Values{
		Col:          colour.ClampInt(v.Col, MinCol, MaxCol),
		CTP:          NormCTP(v.CTP),
		SumFactor:    clampOr(v.SumFactor, 0, MaxSumFactor, def.SumFactor),
		DimFactor:    clampOr(v.DimFactor, 0, 1, def.DimFactor),
		AssistFactor: clampOr(v.AssistFactor, 0, 1, def.AssistFactor),
		RevGrid:      v.RevGrid,
	}
}

func clampOr(v, lo, hi, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return colour.Clamp(v, lo, hi)
}

// NormCTP returns ctp lowercased with duplicate letters removed. Any string
// that is empty, mixes colour spaces or holds an unknown letter becomes "hsv".
func NormCTP(ctp string) string {
	_, chans, ok := parseCTP(ctp)
	if !ok {
		return "hsv"
	}
	var b strings.Builder
	for _, ch := range chans {
		b.WriteString(ch.String())
	}
	return b.String()
}

// Channels returns the colour space and the channels named by a normalised ctp.
func Channels(ctp string) (colour.Space, []colour.Channel) {
	space, chans, ok := parseCTP(ctp)
	if !ok {
		return colour.SpaceHSV, []colour.Channel{colour.ChannelH, colour.ChannelS, colour.ChannelV}
	}
	return space, chans
}

func parseCTP(ctp string) (colour.Space, []colour.Channel, bool) {
	ctp = strings.ToLower(strings.TrimSpace(ctp))
	if ctp == "" {
		return 0, nil, false
	}
	var (
		space colour.Space
		chans []colour.Channel
		seen  = map[colour.Channel]bool{}
	)
	for i, r := range ctp {
		ch, ok := colour.ParseChannel(string(r))
		if !ok {
			return 0, nil, false
		}
		if i == 0 {
			space = ch.Space()
		} else if ch.Space() != space {
			return 0, nil, false
		}
		if !seen[ch] {
			seen[ch] = true
			chans = append(chans, ch)
		}
	}
	return space, chans, true
}

// DefaultLocations returns the centre-and-diamond layout: the anchor in the
// middle, slots 1 and 2 left and right, slots 3 and 4 above and below.
func DefaultLocations() []Point {
	return []Point{
		{X: 0.5, Y: 0.5},
		{X: 0.25, Y: 0.5},
		{X: 0.75, Y: 0.5},
		{X: 0.5, Y: 0.25},
		{X: 0.5, Y: 0.75},
	}
}

// NormLocations returns one clamped point per slot. A slice of the wrong
// length yields the default layout; NaN coordinates take the default too.
func NormLocations(pts []Point) []Point {
	def := DefaultLocations()
	if len(pts) != harmony.Slots {
		return def
	}
	out := make([]Point, harmony.Slots)
	for i, p := range pts {
		out[i] = Point{
			X: clampOr(p.X, 0, 1, def[i].X),
			Y: clampOr(p.Y, 0, 1, def[i].Y),
		}
	}
	return out
}

// NormAssistants returns one assistant list per slot. A slice of the wrong
// length yields five empty lists. Offsets are clamped to [-1,1]; absolute
// S/V are clamped to [0,1] and relative S/V deltas to [-1,1].
func NormAssistants(as [][]Assistant) [][]Assistant {
	out := make([][]Assistant, harmony.Slots)
	if len(as) != harmony.Slots {
		return out
	}
	for i, list := range as {
		for _, a := range list {
			n := Assistant{
				Offset: Point{
					X: clampOr(a.Offset.X, -1, 1, 0),
					Y: clampOr(a.Offset.Y, -1, 1, 0),
				},
				Relative: a.Relative,
			}
			lo := 0.0
			if a.Relative {
				lo = -1
			}
			n.HSV = [3]float64{
				clampOr(a.HSV[0], -360, 360, 0),
				clampOr(a.HSV[1], lo, 1, 0),
				clampOr(a.HSV[2], lo, 1, 0),
			}
			out[i] = append(out[i], n)
		}
	}
	return out
}

// Literal is a fixed list of colours that replaces synthesis.
type Literal struct {
	Hexes []string `json:"hexes"`
	Names []string `json:"names,omitempty"`
}

// Active reports whether the literal list overrides synthesis.
func (l Literal) Active() bool {
	return len(l.Hexes) > 0
}

// Params is the full set of grid inputs besides the anchor colours.
type Params struct {
	Values     Values        `json:"values"`
	Locations  []Point       `json:"locations"`
	Assistants [][]Assistant `json:"assistants"`
	List       Literal       `json:"list"`
}

// DefaultParams returns the parameters of a fresh session.
func DefaultParams() Params {
	return Params{
		Values:     DefaultValues(),
		Locations:  DefaultLocations(),
		Assistants: make([][]Assistant, harmony.Slots),
	}
}

// Norm normalises every field of p.
func (p Params) Norm() Params {
	return Params{
		Values:     NormValues(p.Values),
		Locations:  NormLocations(p.Locations),
		Assistants: NormAssistants(p.Assistants),
		List:       p.List,
	}
}
