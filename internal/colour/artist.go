package colour

// The artist (RYB) wheel is expressed as a piecewise-linear warp of the RGB
// hue circle. Primaries red, yellow and blue sit 120° apart on the artist
// wheel; saturation and value are untouched.
var (
	rgbHueKnots = [...]float64{0, 60, 120, 180, 240, 300, 360}
	rybHueKnots = [...]float64{0, 120, 180, 210, 240, 300, 360}
)

// warpHue maps h from the `from` knot scale onto the `to` knot scale.
func warpHue(h float64, from, to *[7]float64) float64 {
	h = wrapHue(h)
	for i := 1; i < len(from); i++ {
		if h <= from[i] {
			t := (h - from[i-1]) / (from[i] - from[i-1])
			return wrapHue(to[i-1] + t*(to[i]-to[i-1]))
		}
	}
	return 0
}

// RGBHueToRYB maps an RGB-wheel hue to the artist wheel.
func RGBHueToRYB(h float64) float64 {
	return warpHue(h, &rgbHueKnots, &rybHueKnots)
}

// RYBHueToRGB maps an artist-wheel hue back to the RGB wheel.
func RYBHueToRGB(h float64) float64 {
	return warpHue(h, &rybHueKnots, &rgbHueKnots)
}

// ToRYB returns the colour re-expressed on the artist wheel: its hue is
// warped and the RGB components are recomputed from the new hue.
func (c Color) ToRYB() Color {
	out := c
	out.SetHSV([3]float64{RGBHueToRYB(c.hsv[0]), c.hsv[1], c.hsv[2]})
	return out
}

// FromRYB is the inverse of ToRYB.
func (c Color) FromRYB() Color {
	out := c
	out.SetHSV([3]float64{RYBHueToRGB(c.hsv[0]), c.hsv[1], c.hsv[2]})
	return out
}

// RGBToRYBArray maps a batch of 0-255 RGB pixels onto the artist wheel.
func RGBToRYBArray(pixels [][3]float64) [][3]float64 {
	out := make([][3]float64, len(pixels))
	for i, p := range pixels {
		hsv := rgbToHSV(p)
		hsv[0] = RGBHueToRYB(hsv[0])
		out[i] = HSVToRGB(hsv)
	}
	return out
}

// RYBToRGBArray is the inverse of RGBToRYBArray.
func RYBToRGBArray(pixels [][3]float64) [][3]float64 {
	out := make([][3]float64, len(pixels))
	for i, p := range pixels {
		hsv := rgbToHSV(p)
		hsv[0] = RYBHueToRGB(hsv[0])
		out[i] = HSVToRGB(hsv)
	}
	return out
}
