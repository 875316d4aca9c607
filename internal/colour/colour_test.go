package colour

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRGBHSVRoundTrip(t *testing.T) {
	step := 1
	if testing.Short() {
		step = 7
	}

	for r := 0; r < 256; r += step {
		for g := 0; g < 256; g += step {
			for b := 0; b < 256; b += step {
				c := FromRGB(r, g, b)
				got := FromHSV(c.H(), c.S(), c.V()).RGB()
				if absDiff(got[0], uint8(r)) > 1 || absDiff(got[1], uint8(g)) > 1 || absDiff(got[2], uint8(b)) > 1 {
					require.FailNowf(t, "round trip drifted", "(%d,%d,%d) -> %v -> %v", r, g, b, c.HSV(), got)
				}
			}
		}
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestKnownConversions(t *testing.T) {
	tests := []struct {
		name string
		hex  string
		want [3]float64
	}{
		{name: "red", hex: "FF0000", want: [3]float64{0, 1, 1}},
		{name: "green", hex: "00FF00", want: [3]float64{120, 1, 1}},
		{name: "blue", hex: "0000FF", want: [3]float64{240, 1, 1}},
		{name: "white", hex: "FFFFFF", want: [3]float64{0, 0, 1}},
		{name: "black", hex: "000000", want: [3]float64{0, 0, 0}},
		{name: "magenta", hex: "ff00ff", want: [3]float64{300, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := ParseHex(tt.hex)
			require.True(t, ok, "ParseHex(%q)", tt.hex)
			hsv := c.HSV()
			assert.InDeltaSlice(t, tt.want[:], hsv[:], 1e-9)
		})
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   string
	}{
		{name: "upper", input: "1A2B3C", wantOK: true, want: "1A2B3C"},
		{name: "lower", input: "1a2b3c", wantOK: true, want: "1A2B3C"},
		{name: "hash prefix", input: "#1a2b3c", wantOK: true, want: "1A2B3C"},
		{name: "too short", input: "FFF", wantOK: false},
		{name: "too long", input: "FFFFFFF", wantOK: false},
		{name: "not hex", input: "GGGGGG", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := ParseHex(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, c.Hex())
			}
		})
	}
}

func TestOverflowPolicies(t *testing.T) {
	tests := []struct {
		name     string
		overflow Overflow
		input    [3]float64
		want     [3]uint8
	}{
		{name: "cutoff high", overflow: Cutoff, input: [3]float64{300, 10, -20}, want: [3]uint8{255, 10, 0}},
		{name: "revert high", overflow: Revert, input: [3]float64{260, 10, -20}, want: [3]uint8{250, 10, 20}},
		{name: "repeat high", overflow: Repeat, input: [3]float64{300, 256, -1}, want: [3]uint8{44, 0, 255}},
		{name: "in range untouched", overflow: Repeat, input: [3]float64{255, 0, 128}, want: [3]uint8{255, 0, 128}},
		{name: "revert infinite", overflow: Revert, input: [3]float64{math.Inf(1), math.Inf(-1), 7}, want: [3]uint8{255, 0, 7}},
		{name: "repeat infinite", overflow: Repeat, input: [3]float64{math.Inf(1), math.Inf(-1), 7}, want: [3]uint8{255, 0, 7}},
		{name: "cutoff infinite", overflow: Cutoff, input: [3]float64{math.Inf(-1), math.Inf(1), 7}, want: [3]uint8{0, 255, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.input, SpaceRGB, tt.overflow).RGB())
		})
	}
}

func TestHueAlwaysWraps(t *testing.T) {
	for _, of := range []Overflow{Cutoff, Revert, Repeat} {
		assert.InDelta(t, 330, New([3]float64{-30, 1, 1}, SpaceHSV, of).H(), 1e-9, of.String())
		assert.InDelta(t, 5, New([3]float64{725, 0.5, 0.5}, SpaceHSV, of).H(), 1e-9, of.String())
	}
}

func TestInfiniteSaturationClips(t *testing.T) {
	for _, of := range []Overflow{Revert, Repeat} {
		c := New([3]float64{90, math.Inf(1), math.Inf(-1)}, SpaceHSV, of)
		assert.Equal(t, 1.0, c.S(), of.String())
		assert.Equal(t, 0.0, c.V(), of.String())
	}
}

func TestSaturationOverflow(t *testing.T) {
	c := New([3]float64{0, 1.2, -0.25}, SpaceHSV, Revert)
	assert.InDelta(t, 0.8, c.S(), 1e-9)
	assert.InDelta(t, 0.25, c.V(), 1e-9)

	c = New([3]float64{0, 1.2, -0.25}, SpaceHSV, Cutoff)
	assert.Equal(t, 1.0, c.S())
	assert.Equal(t, 0.0, c.V())
}

func TestSetChannelKeepsSpacesConsistent(t *testing.T) {
	c := FromRGB(255, 0, 0)
	c.SetChannel(ChannelH, 120)
	assert.Equal(t, "00FF00", c.Hex())

	c.SetChannel(ChannelB, 255)
	assert.InDelta(t, 180, c.H(), 1e-9)
}

func TestRefHue(t *testing.T) {
	tests := []struct {
		h, center, want float64
	}{
		{h: 350, center: 10, want: -10},
		{h: 10, center: 350, want: 370},
		{h: 180, center: 0, want: -180},
		{h: 90, center: 100, want: 90},
		{h: 200, center: 10, want: -160},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, RefHue(tt.h, tt.center), 1e-9, "RefHue(%v, %v)", tt.h, tt.center)
	}
}

func TestHueDistance(t *testing.T) {
	assert.Equal(t, 20.0, HueDistance(350, 10))
	assert.Equal(t, 180.0, HueDistance(0, 180))
}

func TestArtistWheelInverse(t *testing.T) {
	for h := 0.0; h < 360; h += 0.5 {
		back := RYBHueToRGB(RGBHueToRYB(h))
		require.InDelta(t, h, RefHue(back, h), 1e-9, "hue %v", h)
	}

	yellow := FromRGB(255, 255, 0).ToRYB()
	assert.InDelta(t, 120, yellow.H(), 1e-9)
	assert.Equal(t, "FFFF00", yellow.FromRYB().Hex())
}

func TestBatchConversions(t *testing.T) {
	pixels := [][3]float64{{255, 0, 0}, {12, 200, 77}, {0, 0, 0}}
	assert.Equal(t, pixels, HSVToRGBArray(RGBToHSVArray(pixels)))

	rgb := RYBToRGBArray(RGBToRYBArray(pixels))
	for i := range pixels {
		assert.InDeltaSlice(t, pixels[i][:], rgb[i][:], 1, "artist round trip pixel %d", i)
	}
}

func TestColorImplementsColorColor(t *testing.T) {
	var c color.Color = FromRGB(18, 52, 86)
	r, g, b, a := c.RGBA()
	assert.Equal(t, []uint32{18, 52, 86, 0xffff}, []uint32{r >> 8, g >> 8, b >> 8, a})
	assert.Equal(t, "123456", FromColor(color.RGBA{R: 18, G: 52, B: 86, A: 255}).Hex())
}

func TestContrastRatio(t *testing.T) {
	assert.InDelta(t, 21, ContrastRatio(White(), FromRGB(0, 0, 0)), 0.01)
	assert.Equal(t, "000000", ReadableText(FromRGB(250, 250, 250)).Hex())
}

func TestColourPreviewWithText(t *testing.T) {
	got := ColourPreviewWithText(FromRGB(10, 20, 30), "3", 5)
	assert.True(t, len(got) > 0)
	assert.Regexp(t, `^\x1b\[48;2;10;20;30m`, got)
	// Dark background takes white text.
	assert.Contains(t, got, "\033[38;2;255;255;255m  3  ")
	assert.Regexp(t, `\x1b\[0m$`, got)
}
