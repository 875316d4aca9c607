package extract

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jmylchreest/rickrack/internal/colour"
)

// minSample is the smallest sample the pipeline works with.
const minSample = 9

// greyThresholds are tried in order; the first that leaves enough pixels wins.
var greyThresholds = [...]float64{0.1, 0.05, 0.01}

// sample is one sampled pixel in both colour spaces.
type sample struct {
	rgb [3]float64
	hsv [3]float64
}

// subsample reads the raster, or an evenly spaced grid over it when the
// raster holds more than 1.5× the target.
func subsample(px Pixels, target int) []sample {
	n := px.Len()
	var rgb [][3]float64
	if float64(n) <= 1.5*float64(target) {
		rgb = make([][3]float64, 0, n)
		for _, p := range px.RGB[:n] {
			rgb = append(rgb, toFloat(p))
		}
	} else {
		aspect := float64(px.Width) / float64(px.Height)
		nx := colour.ClampInt(int(math.Round(math.Sqrt(float64(target)*aspect))), 1, px.Width)
		ny := colour.ClampInt(int(math.Round(float64(target)/float64(nx))), 1, px.Height)
		rgb = make([][3]float64, 0, nx*ny)
		for j := 0; j < ny; j++ {
			y := int((float64(j) + 0.5) * float64(px.Height) / float64(ny))
			for i := 0; i < nx; i++ {
				x := int((float64(i) + 0.5) * float64(px.Width) / float64(nx))
				rgb = append(rgb, toFloat(px.At(x, y)))
			}
		}
	}
	return samples(rgb)
}

func samples(rgb [][3]float64) []sample {
	hsv := colour.RGBToHSVArray(rgb)
	out := make([]sample, len(rgb))
	for i := range rgb {
		out[i] = sample{rgb: rgb[i], hsv: hsv[i]}
	}
	return out
}

func toFloat(p [3]uint8) [3]float64 {
	return [3]float64{float64(p[0]), float64(p[1]), float64(p[2])}
}

// pad repeats the sample until it holds at least n pixels.
func pad(s []sample, n int) []sample {
	orig := len(s)
	if orig == 0 {
		return s
	}
	for i := 0; len(s) < n; i++ {
		s = append(s, s[i%orig])
	}
	return s
}

// dropGreys removes low-saturation and low-value pixels with the strictest
// threshold that still keeps minKeep of them.
func dropGreys(s []sample, minKeep float64) []sample {
	for _, thr := range greyThresholds {
		kept := make([]sample, 0, len(s))
		for _, p := range s {
			if p.hsv[1] > thr && p.hsv[2] > thr {
				kept = append(kept, p)
			}
		}
		if float64(len(kept)) >= minKeep {
			return kept
		}
	}
	return s
}

// detectType picks dark, vivid or muted from the sample's median S and V.
func detectType(s []sample) ColorType {
	all := indices(len(s))
	switch {
	case median(channel(s, all, 2)) < 0.35:
		return TypeDark
	case median(channel(s, all, 1)) >= 0.5:
		return TypeVivid
	default:
		return TypeMuted
	}
}

// contrastFilter narrows the sample to the colour type's band, relaxing
// the band from strictness 1.0 down to 0.3 until minKeep pixels remain.
func contrastFilter(s []sample, ct ColorType, minKeep float64) []sample {
	all := indices(len(s))
	for k := 10; k >= 3; k-- {
		kept := band(s, all, ct, float64(k)/10)
		if float64(len(kept)) >= minKeep {
			out := make([]sample, len(kept))
			for i, idx := range kept {
				out[i] = s[idx]
			}
			return out
		}
	}
	return s
}

// band returns the members of idx inside the colour type's S/V band at
// strictness q. Quantiles are taken over idx itself.
func band(s []sample, idx []int, ct ColorType, q float64) []int {
	sat := sortedCopy(channel(s, idx, 1))
	val := sortedCopy(channel(s, idx, 2))
	quant := func(sorted []float64, p float64) float64 {
		return stat.Quantile(colour.Clamp(p, 0, 1), stat.Empirical, sorted, nil)
	}

	var keep func(hsv [3]float64) bool
	switch ct {
	case TypeMuted, TypeAutoMuted:
		sHi, vLo := quant(sat, 1-q/2), quant(val, q/4)
		keep = func(hsv [3]float64) bool { return hsv[1] <= sHi && hsv[2] >= vLo }
	case TypeDark:
		vHi := quant(val, 1-q/2)
		keep = func(hsv [3]float64) bool { return hsv[2] <= vHi }
	default:
		sLo, vLo := quant(sat, q/2), quant(val, q/2)
		keep = func(hsv [3]float64) bool { return hsv[1] >= sLo && hsv[2] >= vLo }
	}

	out := make([]int, 0, len(idx))
	for _, i := range idx {
		if keep(s[i].hsv) {
			out = append(out, i)
		}
	}
	return out
}

// toArtist moves every sampled pixel onto the artist wheel.
func toArtist(s []sample) []sample {
	rgb := make([][3]float64, len(s))
	for i, p := range s {
		rgb[i] = p.rgb
	}
	return samples(colour.RGBToRYBArray(rgb))
}

// unique drops exact repeats, keeping first occurrences in order.
func unique(s []sample) []sample {
	seen := make(map[[3]float64]bool, len(s))
	out := make([]sample, 0, len(s))
	for _, p := range s {
		if !seen[p.rgb] {
			seen[p.rgb] = true
			out = append(out, p)
		}
	}
	return out
}

// pickPivot draws one of twelve 30° hue buckets with probability inversely
// proportional to its population and returns the bucket centre.
func pickPivot(s []sample, rng *rand.Rand) float64 {
	var counts [12]int
	for _, p := range s {
		counts[bucket(p.hsv[0])]++
	}
	total := 0.0
	for _, c := range counts {
		if c > 0 {
			total += 1 / float64(c)
		}
	}
	if total == 0 {
		return 15
	}
	target := rng.Float64() * total
	cumulative := 0.0
	last := 0
	for b, c := range counts {
		if c == 0 {
			continue
		}
		last = b
		cumulative += 1 / float64(c)
		if cumulative >= target {
			return float64(b)*30 + 15
		}
	}
	return float64(last)*30 + 15
}

func bucket(h float64) int {
	return int(h/30) % 12
}

// pivoted returns every hue measured from pivot, in [0,360).
func pivoted(s []sample, pivot float64) []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		h := math.Mod(p.hsv[0]-pivot, 360)
		if h < 0 {
			h += 360
		}
		out[i] = h
	}
	return out
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func channel(s []sample, idx []int, ch int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = s[j].hsv[ch]
	}
	return out
}

func sortedCopy(x []float64) []float64 {
	out := append([]float64(nil), x...)
	sort.Float64s(out)
	return out
}

func median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Quantile(0.5, stat.Empirical, sortedCopy(x), nil)
}
