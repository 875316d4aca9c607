package harmony

import (
	"math"
	"math/rand"
	"strings"

	"github.com/jmylchreest/rickrack/internal/colour"
)

// Sync is the projection applied to sibling slots after a single-slot edit
// on a Custom set.
type Sync string

const (
	SyncUnlimited   Sync = "unlimited"
	SyncHLocked     Sync = "h-locked"
	SyncSLocked     Sync = "s-locked"
	SyncEquidistant Sync = "equidistant"
	SyncEqual       Sync = "equal"
	SyncGradual     Sync = "gradual"
	SyncSymmetrical Sync = "symmetrical"
)

// ValidSyncs returns every synchronization mode.
func ValidSyncs() []Sync {
	return []Sync{
		SyncUnlimited,
		SyncHLocked,
		SyncSLocked,
		SyncEquidistant,
		SyncEqual,
		SyncGradual,
		SyncSymmetrical,
	}
}

// ParseSync maps a mode name to a Sync. Unknown names yield Unlimited.
func ParseSync(s string) (Sync, bool) {
	m := Sync(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range ValidSyncs() {
		if m == valid {
			return m, true
		}
	}
	return SyncUnlimited, false
}

// Ranges bounds the HSV values drawn by Randomize.
type Ranges struct {
	H, S, V [2]float64
}

// DefaultRanges returns the ranges used for a fresh session.
func DefaultRanges() Ranges {
	return Ranges{
		H: [2]float64{0, 360},
		S: [2]float64{0.6, 1},
		V: [2]float64{0.6, 1},
	}
}

// ColorSet holds five colour slots, the harmony rule relating them, and the
// synchronization mode used for free edits. It is not safe for concurrent use.
type ColorSet struct {
	slots     [Slots]colour.Color
	rule      Rule
	sync      Sync
	activated int
}

// New creates a set whose slots are derived from anchor by rule.
func New(anchor colour.Color, rule Rule) *ColorSet {
	if _, ok := ParseRule(string(rule)); !ok {
		rule = RuleAnalogous
	}
	return &ColorSet{
		slots: Apply(rule, anchor),
		rule:  rule,
		sync:  SyncUnlimited,
	}
}

func (cs *ColorSet) Rule() Rule { return cs.rule }
func (cs *ColorSet) Sync() Sync { return cs.sync }
func (cs *ColorSet) Activated() int { return cs.activated }
func (cs *ColorSet) Slots() [Slots]colour.Color { return cs.slots }
func (cs *ColorSet) Slot(i int) colour.Color { return cs.slots[clampIndex(i)] }
func (cs *ColorSet) Anchor() colour.Color { return cs.slots[0] }
func (cs *ColorSet) SetActivated(i int) { cs.activated = clampIndex(i) }
func (cs *ColorSet) SetSync(s Sync) { cs.sync, _ = ParseSync(string(s)) }

// Hexes returns the slot colours as 6-digit hex strings.
func (cs *ColorSet) Hexes() [Slots]string {
	var out [Slots]string
	for i, c := range cs.slots {
		out[i] = c.Hex()
	}
	return out
}

// SetRule switches the rule and regenerates every sibling from the anchor.
// Switching to Custom keeps the current slots.
func (cs *ColorSet) SetRule(r Rule) {
	r, _ = ParseRule(string(r))
	cs.rule = r
	if r != RuleCustom {
		cs.slots = Apply(r, cs.slots[0])
	}
}

// SetSlot writes slot i.
//
// Under a named rule the edit is redirected to the anchor: the slot's offset
// is inverted, the anchor updated, and every slot regenerated. Under Custom
// the slot takes the edit and the synchronization mode projects it onto the
// siblings. Out-of-range indices are clamped.
func (cs *ColorSet) SetSlot(i int, c colour.Color) {
	i = clampIndex(i)
	if cs.rule != RuleCustom {
		anchor := c
		if i > 0 {
			anchor = offsets[cs.rule][i-1].invert(c)
		}
		cs.slots = Apply(cs.rule, anchor)
		return
	}

	before := cs.slots
	cs.slots[i] = c
	cs.project(i, before)
}

// Replace switches to Custom and writes all five slots with no projection.
func (cs *ColorSet) Replace(slots [Slots]colour.Color) {
	cs.rule = RuleCustom
	cs.slots = slots
}

// SetChannel writes one channel of slot i through SetSlot.
func (cs *ColorSet) SetChannel(i int, ch colour.Channel, value float64) {
	c := cs.Slot(i)
	c.SetChannel(ch, value)
	cs.SetSlot(i, c)
}

// Randomize draws a new anchor (or, under Custom, every slot) from ranges.
func (cs *ColorSet) Randomize(rng *rand.Rand, ranges Ranges) {
	draw := func() colour.Color {
		return colour.FromHSV(
			uniform(rng, ranges.H),
			uniform(rng, ranges.S),
			uniform(rng, ranges.V),
		)
	}
	if cs.rule != RuleCustom {
		cs.slots = Apply(cs.rule, draw())
		return
	}
	for i := range cs.slots {
		cs.slots[i] = draw()
	}
}

func uniform(rng *rand.Rand, r [2]float64) float64 {
	return r[0] + rng.Float64()*(r[1]-r[0])
}

// project applies the synchronization mode after slot i changed from
// before[i] to cs.slots[i].
func (cs *ColorSet) project(i int, before [Slots]colour.Color) {
	edited := cs.slots[i].HSV()
	old := before[i].HSV()
	dh := colour.RefHue(edited[0], old[0]) - old[0]
	ds := edited[1] - old[1]
	dv := edited[2] - old[2]

	set := func(j int, h, s, v float64) {
		c := cs.slots[j]
		c.SetHSV([3]float64{h, colour.Clamp(s, 0, 1), colour.Clamp(v, 0, 1)})
		cs.slots[j] = c
	}

	for j := 0; j < Slots; j++ {
		if j == i {
			continue
		}
		hsv := cs.slots[j].HSV()
		switch cs.sync {
		case SyncHLocked:
			set(j, edited[0], hsv[1], hsv[2])
		case SyncSLocked:
			set(j, hsv[0], edited[1], hsv[2])
		case SyncEqual:
			set(j, hsv[0], edited[1], edited[2])
		case SyncEquidistant:
			spacing := meanSpacing(before)
			set(j, edited[0]+float64(position[j]-position[i])*spacing, hsv[1], hsv[2])
		case SyncGradual:
			w := 1 - math.Abs(float64(position[j]-position[i]))/Slots
			set(j, hsv[0]+w*dh, hsv[1]+w*ds, hsv[2]+w*dv)
		case SyncSymmetrical:
			switch {
			case i == 0:
				set(j, hsv[0]+dh, hsv[1]+ds, hsv[2]+dv)
			case j == mirror[i]:
				set(j, hsv[0]-dh, hsv[1]+ds, hsv[2]+dv)
			}
		}
	}
}

// meanSpacing is the mean signed hue gap between neighbours in display order.
func meanSpacing(slots [Slots]colour.Color) float64 {
	order := [Slots]int{3, 1, 0, 2, 4}
	total := 0.0
	for k := 1; k < Slots; k++ {
		prev := slots[order[k-1]].H()
		total += colour.RefHue(slots[order[k]].H(), prev) - prev
	}
	return total / (Slots - 1)
}

func clampIndex(i int) int {
	return colour.ClampInt(i, 0, Slots-1)
}
