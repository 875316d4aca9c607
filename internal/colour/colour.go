// Package colour provides the colour value type used by the harmony engine.
//
// A Color keeps its RGB and HSV representations in step: writing either one
// recomputes the other. Out-of-range writes are resolved by the Color's
// Overflow policy, which is fixed when the Color is constructed.
package colour

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Space names the colour space a value triple is expressed in.
type Space int

const (
	// SpaceRGB is a triple of 0-255 red, green and blue components.
	SpaceRGB Space = iota
	// SpaceHSV is a triple of hue (degrees), saturation (0-1) and value (0-1).
	SpaceHSV
)

// String returns the lowercase space name.
func (s Space) String() string {
	if s == SpaceHSV {
		return "hsv"
	}
	return "rgb"
}

// Channel identifies a single component in either colour space.
type Channel int

const (
	ChannelR Channel = iota
	ChannelG
	ChannelB
	ChannelH
	ChannelS
	ChannelV
)

// Space returns the colour space the channel belongs to.
func (ch Channel) Space() Space {
	if ch >= ChannelH {
		return SpaceHSV
	}
	return SpaceRGB
}

// index returns the position of the channel within its triple.
func (ch Channel) index() int {
	return int(ch) % 3
}

// String returns the single-letter channel name.
func (ch Channel) String() string {
	return [...]string{"r", "g", "b", "h", "s", "v"}[ch]
}

// ParseChannel maps a single-letter channel name to a Channel.
func ParseChannel(s string) (Channel, bool) {
	switch strings.ToLower(s) {
	case "r":
		return ChannelR, true
	case "g":
		return ChannelG, true
	case "b":
		return ChannelB, true
	case "h":
		return ChannelH, true
	case "s":
		return ChannelS, true
	case "v":
		return ChannelV, true
	}
	return ChannelR, false
}

// Color is a single colour with mutually consistent RGB and HSV forms.
// The zero value is black with the Cutoff overflow policy.
type Color struct {
	rgb      [3]uint8
	hsv      [3]float64
	overflow Overflow
}

// New creates a Color from a value triple in the given space.
// Out-of-range components are resolved with the overflow policy.
func New(v [3]float64, space Space, overflow Overflow) Color {
	c := Color{overflow: overflow}
	if space == SpaceHSV {
		c.SetHSV(v)
	} else {
		c.SetRGB(v)
	}
	return c
}

// FromRGB creates a Color from integer RGB components using the Cutoff policy.
func FromRGB(r, g, b int) Color {
	return New([3]float64{float64(r), float64(g), float64(b)}, SpaceRGB, Cutoff)
}

// FromHSV creates a Color from HSV components using the Cutoff policy.
func FromHSV(h, s, v float64) Color {
	return New([3]float64{h, s, v}, SpaceHSV, Cutoff)
}

// White returns pure white.
func White() Color {
	return FromRGB(255, 255, 255)
}

// ParseHex parses a 6-digit hex string (an optional leading '#' is ignored).
// Returns false for any other input.
func ParseHex(s string) (Color, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, false
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Color{}, false
	}
	return FromRGB(int(b[0]), int(b[1]), int(b[2])), true
}

// MustParseHex is like ParseHex but returns white for malformed input.
func MustParseHex(s string) Color {
	if c, ok := ParseHex(s); ok {
		return c
	}
	return White()
}

// Overflow returns the policy used to resolve out-of-range writes.
func (c Color) Overflow() Overflow {
	return c.overflow
}

// WithOverflow returns a copy of c that resolves future writes with of.
func (c Color) WithOverflow(of Overflow) Color {
	c.overflow = of
	return c
}

// RGB returns the 0-255 components.
func (c Color) RGB() [3]uint8 {
	return c.rgb
}

// RGBf returns the RGB components as floats.
func (c Color) RGBf() [3]float64 {
	return [3]float64{float64(c.rgb[0]), float64(c.rgb[1]), float64(c.rgb[2])}
}

// HSV returns hue in [0,360) and saturation/value in [0,1].
func (c Color) HSV() [3]float64 {
	return c.hsv
}

func (c Color) R() uint8 { return c.rgb[0] }
func (c Color) G() uint8 { return c.rgb[1] }
func (c Color) B() uint8 { return c.rgb[2] }
func (c Color) H() float64 { return c.hsv[0] }
func (c Color) S() float64 { return c.hsv[1] }
func (c Color) V() float64 { return c.hsv[2] }
func (c Color) Hex() string { return fmt.Sprintf("%02X%02X%02X", c.rgb[0], c.rgb[1], c.rgb[2]) }
func (c Color) String() string {
	return fmt.Sprintf("#%s hsv(%.1f, %.3f, %.3f)", c.Hex(), c.hsv[0], c.hsv[1], c.hsv[2])
}

// Channel returns the value of a single channel.
func (c Color) Channel(ch Channel) float64 {
	if ch.Space() == SpaceHSV {
		return c.hsv[ch.index()]
	}
	return float64(c.rgb[ch.index()])
}

// Get returns the triple for the requested space.
func (c Color) Get(space Space) [3]float64 {
	if space == SpaceHSV {
		return c.hsv
	}
	return c.RGBf()
}

// SetRGB writes the RGB components and recomputes HSV.
func (c *Color) SetRGB(v [3]float64) {
	for i := range v {
		c.rgb[i] = roundByte(fitRange(v[i], 0, 255, c.overflow))
	}
	c.hsv = rgbToHSV(c.RGBf())
}

// SetHSV writes the HSV components and recomputes RGB.
// The written HSV is kept as given (after overflow) rather than re-derived
// from the rounded RGB, so repeated small edits do not drift.
func (c *Color) SetHSV(v [3]float64) {
	c.hsv = [3]float64{
		wrapHue(v[0]),
		fitRange(v[1], 0, 1, c.overflow),
		fitRange(v[2], 0, 1, c.overflow),
	}
	rgb := hsvToRGB(c.hsv)
	for i := range rgb {
		c.rgb[i] = roundByte(rgb[i])
	}
}

// Set writes a triple in the given space.
func (c *Color) Set(v [3]float64, space Space) {
	if space == SpaceHSV {
		c.SetHSV(v)
		return
	}
	c.SetRGB(v)
}

// SetChannel writes a single channel, keeping the other two channels of the
// same space.
func (c *Color) SetChannel(ch Channel, value float64) {
	v := c.Get(ch.Space())
	v[ch.index()] = value
	c.Set(v, ch.Space())
}

// Shift returns a copy with the HSV deltas applied under the given policy.
// The copy keeps c's own overflow policy for later writes.
func (c Color) Shift(dh, ds, dv float64, of Overflow) Color {
	out := Color{overflow: of}
	out.SetHSV([3]float64{c.hsv[0] + dh, c.hsv[1] + ds, c.hsv[2] + dv})
	out.overflow = c.overflow
	return out
}

// RefHSV returns the HSV triple with its hue moved into the ±180° branch
// nearest center.
func (c Color) RefHSV(center float64) [3]float64 {
	return [3]float64{RefHue(c.hsv[0], center), c.hsv[1], c.hsv[2]}
}

// Equal reports whether both colours have the same RGB components.
func (c Color) Equal(o Color) bool {
	return c.rgb == o.rgb
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.rgb[0])
	r |= r << 8
	g = uint32(c.rgb[1])
	g |= g << 8
	b = uint32(c.rgb[2])
	b |= b << 8
	return r, g, b, 0xffff
}
