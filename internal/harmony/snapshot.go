package harmony

import "github.com/jmylchreest/rickrack/internal/colour"

// Snapshot is the serialisable state of a ColorSet. Slots are stored as HSV
// so a restored set reproduces both colour spaces exactly.
type Snapshot struct {
	Rule      Rule                   `json:"rule"`
	Sync      Sync                   `json:"sync"`
	Activated int                    `json:"activated"`
	Slots     [Slots][3]float64      `json:"slots"`
	Overflow  [Slots]colour.Overflow `json:"overflow"`
}

// Backup captures the set's current state.
func (cs *ColorSet) Backup() Snapshot {
	snap := Snapshot{
		Rule:      cs.rule,
		Sync:      cs.sync,
		Activated: cs.activated,
	}
	for i, c := range cs.slots {
		snap.Slots[i] = c.HSV()
		snap.Overflow[i] = c.Overflow()
	}
	return snap
}

// Recover restores a captured state, including each slot's overflow policy.
// Malformed rule or sync names fall back to their defaults and unknown
// policies to Cutoff.
func (cs *ColorSet) Recover(snap Snapshot) {
	cs.rule, _ = ParseRule(string(snap.Rule))
	cs.sync, _ = ParseSync(string(snap.Sync))
	cs.activated = clampIndex(snap.Activated)
	for i, hsv := range snap.Slots {
		of := colour.ParseOverflow(snap.Overflow[i].String())
		cs.slots[i] = colour.New(hsv, colour.SpaceHSV, of)
	}
}
