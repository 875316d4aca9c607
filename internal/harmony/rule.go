// Package harmony implements the five-slot colour set and the harmony rules
// that tie its slots to the anchor in slot 0.
package harmony

import (
	"strings"

	"github.com/jmylchreest/rickrack/internal/colour"
)

// Slots is the number of colours in a set.
const Slots = 5

// Rule names the relationship enforced between the anchor and its siblings.
type Rule string

const (
	RuleAnalogous     Rule = "analogous"
	RuleMonochromatic Rule = "monochromatic"
	RuleTriad         Rule = "triad"
	RuleTetrad        Rule = "tetrad"
	RulePentad        Rule = "pentad"
	RuleComplementary Rule = "complementary"
	RuleShades        Rule = "shades"
	RuleCustom        Rule = "custom"
)

// ValidRules returns every rule in display order.
func ValidRules() []Rule {
	return []Rule{
		RuleAnalogous,
		RuleMonochromatic,
		RuleTriad,
		RuleTetrad,
		RulePentad,
		RuleComplementary,
		RuleShades,
		RuleCustom,
	}
}

// ParseRule maps a rule name (case-insensitive) to a Rule.
// Unknown names fall back to Analogous and report false.
func ParseRule(s string) (Rule, bool) {
	r := Rule(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range ValidRules() {
		if r == valid {
			return r, true
		}
	}
	return RuleAnalogous, false
}

// offset is one sibling's relationship to the anchor.
// Hue is in degrees; sat/val are additive unless scale is set.
type offset struct {
	hue, sat, val float64
	scale         bool
}

// offsets holds slots 1..4 for every rule except Custom.
var offsets = map[Rule][Slots - 1]offset{
	RuleAnalogous: {
		{hue: -30}, {hue: 30}, {hue: -60}, {hue: 60},
	},
	RuleMonochromatic: {
		{val: -0.15}, {val: -0.30}, {val: -0.45}, {val: -0.60},
	},
	RuleTriad: {
		{hue: 120}, {hue: -120}, {hue: 120}, {hue: -120},
	},
	RuleTetrad: {
		{hue: 90}, {hue: -90}, {hue: 180}, {hue: 180, sat: -0.3},
	},
	RulePentad: {
		{hue: 72}, {hue: -72}, {hue: 144}, {hue: -144},
	},
	RuleComplementary: {
		{val: -0.3}, {hue: 180}, {sat: -0.3}, {hue: 180, val: -0.3},
	},
	RuleShades: {
		{sat: 0.8, val: 0.8, scale: true},
		{sat: 0.6, val: 0.6, scale: true},
		{sat: 0.4, val: 0.4, scale: true},
		{sat: 0.2, val: 0.2, scale: true},
	},
}

// apply derives a sibling from the anchor.
func (o offset) apply(anchor colour.Color) colour.Color {
	hsv := anchor.HSV()
	if o.scale {
		out := anchor
		out.SetHSV([3]float64{hsv[0] + o.hue, hsv[1] * o.sat, hsv[2] * o.val})
		return out
	}
	return anchor.Shift(o.hue, o.sat, o.val, colour.Revert)
}

// invert derives the anchor that would produce sibling under this offset.
func (o offset) invert(sibling colour.Color) colour.Color {
	hsv := sibling.HSV()
	h := hsv[0] - o.hue
	s, v := hsv[1]-o.sat, hsv[2]-o.val
	if o.scale {
		s, v = hsv[1], hsv[2]
		if o.sat > 0 {
			s = hsv[1] / o.sat
		}
		if o.val > 0 {
			v = hsv[2] / o.val
		}
	}
	out := sibling
	out.SetHSV([3]float64{h, colour.Clamp(s, 0, 1), colour.Clamp(v, 0, 1)})
	return out
}

// Apply returns the five slots the rule derives from anchor.
// Custom returns the anchor in every slot.
func Apply(rule Rule, anchor colour.Color) [Slots]colour.Color {
	var out [Slots]colour.Color
	out[0] = anchor
	offs, ok := offsets[rule]
	for i := 1; i < Slots; i++ {
		if !ok {
			out[i] = anchor
			continue
		}
		out[i] = offs[i-1].apply(anchor)
	}
	return out
}

// position is the left-to-right display position of each slot
// (display order 3, 1, 0, 2, 4).
var position = [Slots]int{0, -1, 1, -2, 2}

// mirror is each slot's partner across the anchor.
var mirror = [Slots]int{0, 2, 1, 4, 3}
