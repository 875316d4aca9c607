package grid

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/jmylchreest/rickrack/internal/colour"
	"github.com/jmylchreest/rickrack/internal/harmony"
)

const (
	// tiles is the number of periodic copies generated per anchor.
	tiles = 9
	// AnchorRows is the number of weight columns contributed by the anchors.
	AnchorRows = harmony.Slots * tiles

	minDistance = 0.001
)

// Grid is a synthesized board, stored row-major.
type Grid struct {
	Col    int
	Colors []colour.Color
	Names  []string // literal boards only
}

// At returns the colour in column x of row y.
func (g Grid) At(x, y int) colour.Color {
	return g.Colors[y*g.Col+x]
}

// Hexes returns every cell as a 6-digit hex string.
func (g Grid) Hexes() []string {
	out := make([]string, len(g.Colors))
	for i, c := range g.Colors {
		out[i] = c.Hex()
	}
	return out
}

// source is one weighted point of the field.
type source struct {
	at     Point
	color  colour.Color
	assist bool
}

// sources lists the 45 periodic anchor points followed by every assistant
// point. Anchor k occupies rows k*9 to k*9+8. Assistants are not tiled and
// keep their position even when it falls outside the unit square.
func sources(anchors [harmony.Slots]colour.Color, locs []Point, assts [][]Assistant) []source {
	out := make([]source, 0, AnchorRows)
	for k, loc := range locs {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				out = append(out, source{
					at:    Point{X: loc.X + float64(dx), Y: loc.Y + float64(dy)},
					color: anchors[k],
				})
			}
		}
	}
	for k, list := range assts {
		for _, a := range list {
			out = append(out, source{
				at:     Point{X: locs[k].X + a.Offset.X, Y: locs[k].Y + a.Offset.Y},
				color:  a.Colour(anchors[k]),
				assist: true,
			})
		}
	}
	return out
}

// Weights returns the normalised weight field: one row per lattice cell
// (row-major over the board) and one column per source point, anchors
// first. Each row sums to 1. DimFactor is not applied.
func Weights(p Params) *mat.Dense {
	p = p.Norm()
	var anchors [harmony.Slots]colour.Color
	return weights(p, sources(anchors, p.Locations, p.Assistants))
}

func weights(p Params, srcs []source) *mat.Dense {
	v := p.Values
	cells := v.Col * v.Col
	w := mat.NewDense(cells, len(srcs), nil)
	for y := 0; y < v.Col; y++ {
		cy := (float64(y) + 0.5) / float64(v.Col)
		for x := 0; x < v.Col; x++ {
			cx := (float64(x) + 0.5) / float64(v.Col)
			row := w.RawRowView(y*v.Col + x)
			for j, s := range srcs {
				dx, dy := s.at.X-cx, s.at.Y-cy
				d := math.Max(math.Pow(dx*dx+dy*dy, v.SumFactor), minDistance)
				if !v.RevGrid {
					d = 1 / d
				}
				if s.assist {
					d *= v.AssistFactor
				}
				row[j] = d
			}
			if sum := floats.Sum(row); sum > 0 {
				floats.Scale(1/sum, row)
			}
		}
	}
	return w
}

// Synthesize builds the board for the given anchors. A literal list, when
// present, is laid out row-major and padded with white; otherwise every
// cell is the weighted blend of the anchor and assistant colours.
func Synthesize(anchors [harmony.Slots]colour.Color, p Params) Grid {
	p = p.Norm()
	if p.List.Active() {
		return literal(p.Values.Col, p.List)
	}

	v := p.Values
	srcs := sources(anchors, p.Locations, p.Assistants)
	w := weights(p, srcs)
	w.Scale(v.DimFactor, w)

	space, chans := Channels(v.CTP)
	base := anchors[0].Get(space)
	cells := v.Col * v.Col

	values := make([][3]float64, cells)
	for i := range values {
		values[i] = base
	}

	col := mat.NewVecDense(len(srcs), nil)
	sum := mat.NewVecDense(cells, nil)
	for _, ch := range chans {
		idx := channelIndex(ch)
		for j, s := range srcs {
			col.SetVec(j, contribution(ch, s.color, base, v.RevGrid))
		}
		sum.MulVec(w, col)
		for i := range values {
			values[i][idx] = resolve(ch, sum.AtVec(i), base, v.RevGrid)
		}
	}

	out := Grid{Col: v.Col, Colors: make([]colour.Color, cells)}
	for i, val := range values {
		out.Colors[i] = colour.New(val, space, colour.Cutoff)
	}
	return out
}

func channelIndex(ch colour.Channel) int {
	return int(ch) % 3
}

// contribution is the value a source feeds into the weighted sum for ch.
// Hue is taken relative to anchor 0 on the nearest branch. In reverse mode
// the hue offset is mirrored and RGB and V work on their complements.
func contribution(ch colour.Channel, c colour.Color, base [3]float64, rev bool) float64 {
	val := c.Channel(ch)
	switch ch {
	case colour.ChannelH:
		d := colour.RefHue(val, base[0]) - base[0]
		if rev {
			return -d
		}
		return d
	case colour.ChannelV:
		if rev {
			return 1 - val
		}
	case colour.ChannelR, colour.ChannelG, colour.ChannelB:
		if rev {
			return 255 - val
		}
	}
	return val
}

// resolve maps a weighted sum back to a channel value.
func resolve(ch colour.Channel, sum float64, base [3]float64, rev bool) float64 {
	switch ch {
	case colour.ChannelH:
		return base[0] + sum
	case colour.ChannelV:
		if rev {
			return 1 - sum
		}
	case colour.ChannelR, colour.ChannelG, colour.ChannelB:
		if rev {
			return 255 - sum
		}
	}
	return sum
}

func literal(col int, list Literal) Grid {
	cells := col * col
	out := Grid{
		Col:    col,
		Colors: make([]colour.Color, cells),
		Names:  make([]string, cells),
	}
	for i := 0; i < cells; i++ {
		out.Colors[i] = colour.White()
		if i < len(list.Hexes) {
			if c, ok := colour.ParseHex(list.Hexes[i]); ok {
				out.Colors[i] = c
			}
		}
		if i < len(list.Names) {
			out.Names[i] = list.Names[i]
		}
	}
	return out
}
