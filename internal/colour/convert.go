package colour

import "math"

// rgbToHSV converts 0-255 RGB to hue in [0,360) and saturation/value in [0,1].
// Hue is 0 for achromatic colours.
func rgbToHSV(rgb [3]float64) [3]float64 {
	r := rgb[0] / 255.0
	g := rgb[1] / 255.0
	b := rgb[2] / 255.0

	maxVal := math.Max(r, math.Max(g, b))
	minVal := math.Min(r, math.Min(g, b))
	delta := maxVal - minVal

	v := maxVal
	if maxVal == 0 || delta == 0 {
		return [3]float64{0, 0, v}
	}
	s := delta / maxVal

	var h float64
	switch maxVal {
	case r:
		h = (g - b) / delta
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}

	return [3]float64{wrapHue(h * 60), s, v}
}

// hsvToRGB converts HSV to unrounded 0-255 RGB.
func hsvToRGB(hsv [3]float64) [3]float64 {
	h, s, v := wrapHue(hsv[0]), hsv[1], hsv[2]
	if s == 0 {
		return [3]float64{v * 255, v * 255, v * 255}
	}

	sector := h / 60
	i := math.Floor(sector)
	f := sector - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return [3]float64{r * 255, g * 255, b * 255}
}

// RGBToHSV converts a single 0-255 RGB triple to HSV.
func RGBToHSV(rgb [3]float64) [3]float64 {
	return rgbToHSV(rgb)
}

// HSVToRGB converts a single HSV triple to rounded 0-255 RGB.
func HSVToRGB(hsv [3]float64) [3]float64 {
	rgb := hsvToRGB(hsv)
	for i := range rgb {
		rgb[i] = float64(roundByte(rgb[i]))
	}
	return rgb
}

// RGBToHSVArray converts a batch of RGB pixels to HSV.
func RGBToHSVArray(pixels [][3]float64) [][3]float64 {
	out := make([][3]float64, len(pixels))
	for i, p := range pixels {
		out[i] = rgbToHSV(p)
	}
	return out
}

// HSVToRGBArray converts a batch of HSV pixels to rounded RGB.
func HSVToRGBArray(pixels [][3]float64) [][3]float64 {
	out := make([][3]float64, len(pixels))
	for i, p := range pixels {
		out[i] = HSVToRGB(p)
	}
	return out
}

// RefHue returns h moved into the half-open branch [center-180, center+180).
// Interpolating hues after this transform never crosses the 0/360 seam the
// long way round.
func RefHue(h, center float64) float64 {
	d := math.Mod(h-center, 360)
	if d < -180 {
		d += 360
	} else if d >= 180 {
		d -= 360
	}
	return center + d
}

// HueDistance returns the shortest angular distance between two hues (0-180).
func HueDistance(h1, h2 float64) float64 {
	diff := math.Mod(math.Abs(h1-h2), 360)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}
