package extract

import (
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/jmylchreest/rickrack/internal/harmony"
)

// cluster runs one-dimensional k-means over values. Centres start at the
// (i+0.5)/k quantiles of the sorted values; iteration stops after maxIter
// rounds or when the centres stop moving. Returns the centres and the
// indices of the values assigned to each.
func cluster(values []float64, k, maxIter int) ([]float64, [][]int) {
	centres := make([]float64, k)
	if len(values) == 0 {
		return centres, make([][]int, k)
	}
	sorted := sortedCopy(values)
	for i := range centres {
		centres[i] = stat.Quantile((float64(i)+0.5)/float64(k), stat.Empirical, sorted, nil)
	}

	members := assign(values, centres)
	for iter := 0; iter < maxIter; iter++ {
		next := make([]float64, k)
		for c, idx := range members {
			if len(idx) == 0 {
				next[c] = centres[c]
				continue
			}
			group := make([]float64, len(idx))
			for i, j := range idx {
				group[i] = values[j]
			}
			next[c] = stat.Mean(group, nil)
		}
		if slices.Equal(next, centres) {
			break
		}
		centres = next
		members = assign(values, centres)
	}
	return centres, members
}

// assign groups value indices by nearest centre; ties go to the lower centre.
func assign(values, centres []float64) [][]int {
	members := make([][]int, len(centres))
	for i, v := range values {
		nearest := 0
		best := math.MaxFloat64
		for c, centre := range centres {
			if d := math.Abs(v - centre); d < best {
				best = d
				nearest = c
			}
		}
		members[nearest] = append(members[nearest], i)
	}
	return members
}

// nearest returns the member of idx whose value is closest to target,
// or -1 for an empty idx.
func nearest(values []float64, idx []int, target float64) int {
	best, bestD := -1, math.MaxFloat64
	for _, i := range idx {
		if d := math.Abs(values[i] - target); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// pickByHue returns, for each hue cluster, the pixel nearest its centre.
// Large groups are first narrowed to the colour type's band.
func pickByHue(s []sample, hues, centres []float64, members [][]int, ct ColorType) [harmony.Slots]sample {
	var out [harmony.Slots]sample
	all := indices(len(s))
	for c := range out {
		group := members[c]
		if len(group) > 12 {
			if sub := band(s, group, ct, 1); len(sub) > 0 {
				group = sub
			}
		}
		if len(group) == 0 {
			group = all
		}
		out[c] = s[nearest(hues, group, centres[c])]
	}
	return out
}

// pickAuto chooses one non-empty hue cluster at random and splits it into
// five groups by value (auto-vivid) or saturation (auto-muted).
func (e *Extractor) pickAuto(s []sample, members [][]int, ct ColorType, rng *rand.Rand) [harmony.Slots]sample {
	var candidates [][]int
	for _, idx := range members {
		if len(idx) > 0 {
			candidates = append(candidates, idx)
		}
	}
	group := candidates[rng.Intn(len(candidates))]

	ch := 2
	if ct == TypeAutoMuted {
		ch = 1
	}
	values := channel(s, group, ch)
	centres, sub := cluster(values, harmony.Slots, e.maxIterations)

	all := indices(len(values))
	var out [harmony.Slots]sample
	for c := range out {
		idx := sub[c]
		if len(idx) == 0 {
			idx = all
		}
		out[c] = s[group[nearest(values, idx, centres[c])]]
	}
	return out
}
