package extract

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/rickrack/internal/colour"
	"github.com/jmylchreest/rickrack/internal/grid"
)

var stripeHues = []float64{0, 72, 144, 216, 288}

// stripes builds a raster of five vertical, fully saturated hue stripes.
func stripes(width, height int) Pixels {
	px := NewPixels(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := colour.FromHSV(stripeHues[x*len(stripeHues)/width], 1, 1)
			px.Set(x, y, c.RGB())
		}
	}
	return px
}

// noise builds a raster of random pixels.
func noise(width, height int, seed int64) Pixels {
	rng := rand.New(rand.NewSource(seed))
	px := NewPixels(width, height)
	for i := range px.RGB {
		px.RGB[i] = [3]uint8{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
	}
	return px
}

// ramps builds a raster whose left half is red and right half cyan. Each
// of the ten row bands steps either value (vivid) or saturation (muted).
func ramps(muted bool) Pixels {
	const width, height = 40, 50
	px := NewPixels(width, height)
	for y := 0; y < height; y++ {
		level := 0.2 + 0.08*float64(y/5)
		for x := 0; x < width; x++ {
			hue := 0.0
			if x >= width/2 {
				hue = 180
			}
			c := colour.FromHSV(hue, 1, level)
			if muted {
				c = colour.FromHSV(hue, level, 1)
			}
			px.Set(x, y, c.RGB())
		}
	}
	return px
}

func seeded(seed int64) Options {
	opts := DefaultOptions()
	opts.Rand = rand.New(rand.NewSource(seed))
	return opts
}

func inUnitSquare(p grid.Point) bool {
	return p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
}

func TestParseColorType(t *testing.T) {
	tests := []struct {
		in      string
		want    ColorType
		wantErr bool
	}{
		{"vivid", TypeVivid, false},
		{"Muted", TypeMuted, false},
		{"dark", TypeDark, false},
		{"auto-vivid", TypeAutoVivid, false},
		{"auto", TypeAuto, false},
		{"4", TypeAutoMuted, false},
		{"-1", TypeAuto, false},
		{"17", TypeAuto, false},
		{"neon", TypeAuto, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColorType(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractTinyImage(t *testing.T) {
	for _, size := range [][2]int{{0, 0}, {1, 1}, {2, 2}, {8, 1}} {
		px := NewPixels(size[0], size[1])
		res := Extract(px, seeded(1))
		for i, loc := range res.Locations {
			assert.True(t, inUnitSquare(loc), "%dx%d: location %d = %v", size[0], size[1], i, loc)
		}
	}
}

func TestExtractStripes(t *testing.T) {
	px := stripes(100, 50)

	for seed := int64(0); seed < 8; seed++ {
		for _, artist := range []bool{false, true} {
			opts := seeded(seed)
			opts.Samples = 500
			opts.Artist = artist

			res := Extract(px, opts)

			matched := make(map[int]bool)
			for i, c := range res.Colors {
				stripe := -1
				for k, h := range stripeHues {
					if colour.HueDistance(c.H(), h) < 15 {
						stripe = k
					}
				}
				if !assert.GreaterOrEqual(t, stripe, 0, "seed %d artist %v: colour %d hue %.1f matches no stripe", seed, artist, i, c.H()) {
					continue
				}
				assert.False(t, matched[stripe], "seed %d artist %v: stripe %d returned twice", seed, artist, stripe)
				matched[stripe] = true

				loc := res.Locations[i]
				lo, hi := float64(stripe)/5, float64(stripe+1)/5
				assert.True(t, loc.X >= lo && loc.X <= hi,
					"seed %d artist %v: colour %d located at x=%.3f, want within stripe [%.1f,%.1f]", seed, artist, i, loc.X, lo, hi)
			}
		}
	}
}

func TestExtractAutoTypesSplitOneHueGroup(t *testing.T) {
	tests := []struct {
		name    string
		ct      ColorType
		channel func(colour.Color) float64
	}{
		{name: "auto-vivid spreads value", ct: TypeAutoVivid, channel: colour.Color.V},
		{name: "auto-muted spreads saturation", ct: TypeAutoMuted, channel: colour.Color.S},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px := ramps(tt.ct == TypeAutoMuted)
			for seed := int64(0); seed < 6; seed++ {
				opts := seeded(seed)
				opts.ColorType = tt.ct

				res := Extract(px, opts)

				group := res.Colors[0].H()
				levels := make(map[float64]bool)
				prev := -1.0
				for i, c := range res.Colors {
					assert.Less(t, colour.HueDistance(c.H(), group), 1.0,
						"seed %d: colour %d hue %.1f left the hue group %.1f", seed, i, c.H(), group)
					v := tt.channel(c)
					assert.GreaterOrEqual(t, v, prev, "seed %d: colour %d out of order", seed, i)
					prev = v
					levels[v] = true
				}
				assert.True(t, colour.HueDistance(group, 0) < 1 || colour.HueDistance(group, 180) < 1,
					"seed %d: hue group %.1f is neither red nor cyan", seed, group)
				assert.GreaterOrEqual(t, len(levels), 3, "seed %d: picks should spread over the ramp", seed)
			}
		})
	}
}

func TestExtractIsSeedable(t *testing.T) {
	px := noise(60, 40, 3)
	for _, ct := range ValidColorTypes() {
		t.Run(ct.String(), func(t *testing.T) {
			a := seeded(42)
			a.ColorType = ct
			b := seeded(42)
			b.ColorType = ct

			ra, rb := Extract(px, a), Extract(px, b)
			assert.Equal(t, ra, rb, "Extract() not deterministic for a fixed seed")
			for i, loc := range ra.Locations {
				assert.True(t, inUnitSquare(loc), "location %d = %v", i, loc)
			}
		})
	}
}

func TestExtractLocationsPointAtColours(t *testing.T) {
	px := noise(30, 30, 9)
	res := Extract(px, seeded(5))
	for i, c := range res.Colors {
		loc := res.Locations[i]
		x, y := int(loc.X*float64(px.Width)), int(loc.Y*float64(px.Height))
		assert.True(t, within(px.At(x, y), c.RGB(), nearTolerance),
			"colour %d = %s, pixel at %v = %v", i, c.Hex(), loc, px.At(x, y))
	}
}

func TestCluster(t *testing.T) {
	values := []float64{1, 2, 3, 50, 51, 100, 200, 201, 300}
	centres, members := cluster(values, 5, 100)

	assert.True(t, sort.Float64sAreSorted(centres), "centres = %v, want ascending", centres)
	total := 0
	for _, m := range members {
		total += len(m)
	}
	assert.Equal(t, len(values), total)

	last := members[len(members)-1]
	require.Len(t, last, 1)
	assert.Equal(t, 300.0, values[last[0]])
	assert.LessOrEqual(t, centres[0], 10.0)
}

func TestClusterEmpty(t *testing.T) {
	centres, members := cluster(nil, 5, 100)
	assert.Len(t, centres, 5)
	assert.Len(t, members, 5)
}

func TestPickPivotFavoursRareBuckets(t *testing.T) {
	s := make([]sample, 0, 100)
	for iter := 0; iter < 99; iter++ {
		s = append(s, sample{hsv: [3]float64{5, 1, 1}})
	}
	s = append(s, sample{hsv: [3]float64{185, 1, 1}})

	rng := rand.New(rand.NewSource(11))
	rare := 0
	for iter := 0; iter < 1000; iter++ {
		if pickPivot(s, rng) == 195 {
			rare++
		}
	}
	assert.GreaterOrEqual(t, rare, 950, "rare bucket chosen %d/1000 times", rare)
}

func TestDropGreys(t *testing.T) {
	var s []sample
	for iter := 0; iter < 20; iter++ {
		s = append(s, sample{hsv: [3]float64{0, 0, 0.5}})
		s = append(s, sample{hsv: [3]float64{120, 0.8, 0.8}})
	}

	require.Len(t, dropGreys(s, 9), 20)

	// Too few coloured pixels to satisfy minKeep: nothing is dropped.
	assert.Len(t, dropGreys(s, 30), len(s))
}

func TestContrastFilterDark(t *testing.T) {
	var s []sample
	for i := 0; i < 40; i++ {
		s = append(s, sample{hsv: [3]float64{0, 0.5, float64(i+1) / 40}})
	}
	for _, p := range contrastFilter(s, TypeDark, 9) {
		assert.LessOrEqual(t, p.hsv[2], 0.5)
	}
}

func TestLocateFallsBackToNearAndRandom(t *testing.T) {
	px := NewPixels(4, 4)
	px.Set(2, 1, [3]uint8{100, 100, 100})

	colors := [5]colour.Color{
		colour.FromRGB(102, 98, 100),
		colour.FromRGB(0, 0, 0),
		colour.FromRGB(250, 10, 10),
		colour.FromRGB(0, 0, 0),
		colour.FromRGB(0, 0, 0),
	}
	got := locate(px, colors, rand.New(rand.NewSource(1)))

	assert.Equal(t, grid.Point{X: 2.5 / 4, Y: 1.5 / 4}, got[0], "near match")
	assert.Equal(t, grid.Point{X: 0.5 / 4, Y: 0.5 / 4}, got[1], "exact match")
	assert.True(t, inUnitSquare(got[2]), "fallback = %v", got[2])
}
