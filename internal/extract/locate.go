package extract

import (
	"math/rand"

	"github.com/jmylchreest/rickrack/internal/colour"
	"github.com/jmylchreest/rickrack/internal/grid"
	"github.com/jmylchreest/rickrack/internal/harmony"
)

// nearTolerance is the per-channel difference accepted when no exact match
// exists.
const nearTolerance = 3

// locate finds, for each colour, the first exact matching pixel in the
// raster, else the first pixel within nearTolerance on every channel, and
// returns its centre in normalised coordinates. Colours with no match get a
// random location.
func locate(px Pixels, colors [harmony.Slots]colour.Color, rng *rand.Rand) [harmony.Slots]grid.Point {
	var exact, near [harmony.Slots]int
	for k := range exact {
		exact[k], near[k] = -1, -1
	}

	n := px.Len()
	for i, p := range px.RGB[:n] {
		for k, c := range colors {
			if exact[k] >= 0 {
				continue
			}
			rgb := c.RGB()
			if p == rgb {
				exact[k] = i
			} else if near[k] < 0 && within(p, rgb, nearTolerance) {
				near[k] = i
			}
		}
	}

	var out [harmony.Slots]grid.Point
	for k := range out {
		idx := exact[k]
		if idx < 0 {
			idx = near[k]
		}
		if idx < 0 {
			out[k] = grid.Point{X: rng.Float64(), Y: rng.Float64()}
			continue
		}
		x, y := idx%px.Width, idx/px.Width
		out[k] = grid.Point{
			X: (float64(x) + 0.5) / float64(px.Width),
			Y: (float64(y) + 0.5) / float64(px.Height),
		}
	}
	return out
}

func within(a, b [3]uint8, tol int) bool {
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d < -tol || d > tol {
			return false
		}
	}
	return true
}
