package colour

import (
	"math"
	"strings"
)

// Overflow selects how out-of-range channel values are brought back into
// range. Hue is always wrapped modulo 360 regardless of the policy.
type Overflow int

const (
	// Cutoff clips values to the nearest bound.
	Cutoff Overflow = iota
	// Revert reflects values at the bound (260 becomes 250).
	Revert
	// Repeat wraps values modulo the range width (300 becomes 44).
	Repeat
)

// ValidOverflows returns the policy names accepted by ParseOverflow.
func ValidOverflows() []string {
	return []string{"cutoff", "revert", "repeat"}
}

// String returns the policy name.
func (o Overflow) String() string {
	switch o {
	case Revert:
		return "revert"
	case Repeat:
		return "repeat"
	default:
		return "cutoff"
	}
}

// ParseOverflow maps a policy name to an Overflow. Unknown names yield Cutoff.
func ParseOverflow(s string) Overflow {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "revert", "reflect":
		return Revert
	case "repeat", "wrap", "modulo":
		return Repeat
	default:
		return Cutoff
	}
}

// fitRange resolves v into [lo, hi] according to the policy.
// For the 0-255 RGB range, Repeat wraps over 256 integer steps. Infinite
// values clip to the nearest bound under every policy and NaN becomes lo.
func fitRange(v, lo, hi float64, of Overflow) float64 {
	switch {
	case math.IsNaN(v):
		return lo
	case math.IsInf(v, 1):
		return hi
	case math.IsInf(v, -1):
		return lo
	}
	if v >= lo && v <= hi {
		return v
	}
	switch of {
	case Revert:
		width := hi - lo
		period := 2 * width
		y := math.Mod(v-lo, period)
		if y < 0 {
			y += period
		}
		if y > width {
			y = period - y
		}
		return lo + y
	case Repeat:
		width := hi - lo
		if hi == 255 {
			width = 256
		}
		y := math.Mod(v-lo, width)
		if y < 0 {
			y += width
		}
		return math.Min(lo+y, hi)
	default:
		return math.Max(lo, math.Min(hi, v))
	}
}

// wrapHue maps any hue into [0, 360).
func wrapHue(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

// roundByte rounds an in-range float to the nearest byte.
func roundByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// ClampInt restricts v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
