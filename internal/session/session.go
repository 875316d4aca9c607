// Package session holds the state of one editing session: the colour set,
// the board parameters, where extracted colours came from, and the undo log.
//
// Every mutation is applied immediately and reported to observers. Nothing
// is recorded in history until Backup is called, so callers decide what
// counts as a commit. A Session is not safe for concurrent use.
package session

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/rickrack/internal/colour"
	"github.com/jmylchreest/rickrack/internal/extract"
	"github.com/jmylchreest/rickrack/internal/grid"
	"github.com/jmylchreest/rickrack/internal/harmony"
	"github.com/jmylchreest/rickrack/internal/history"
)

// Kind classifies a change.
type Kind string

const (
	KindSlots     Kind = "slots"
	KindRule      Kind = "rule"
	KindSync      Kind = "sync"
	KindActivated Kind = "activated"
	KindGrid      Kind = "grid"
	KindImage     Kind = "image"
	KindRestore   Kind = "restore"
)

// Change describes a committed mutation. Slot is -1 unless a single slot
// was edited.
type Change struct {
	Kind Kind
	Slot int
}

// Observer is notified synchronously after every mutation.
type Observer interface {
	OnChange(Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Change)

// OnChange calls f.
func (f ObserverFunc) OnChange(c Change) { f(c) }

// Options configures a new Session.
type Options struct {
	Logger   hclog.Logger
	MaxSteps int
	Rand     *rand.Rand
	Ranges   *harmony.Ranges
}

// Session is the live editing state.
type Session struct {
	ID uuid.UUID

	logger    hclog.Logger
	rng       *rand.Rand
	ranges    harmony.Ranges
	observers []Observer

	colors          *harmony.ColorSet
	grid            grid.Params
	imageLocations  []grid.Point
	imageAssistants [][]grid.Point
	history         *history.Log
}

// New creates a session whose colour set is derived from anchor by rule,
// and records it as the first history entry.
func New(anchor colour.Color, rule harmony.Rule, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 -- colour choice
	}
	ranges := harmony.DefaultRanges()
	if opts.Ranges != nil {
		ranges = *opts.Ranges
	}

	s := &Session{
		ID:              uuid.New(),
		rng:             rng,
		ranges:          ranges,
		colors:          harmony.New(anchor, rule),
		grid:            grid.DefaultParams(),
		imageLocations:  grid.DefaultLocations(),
		imageAssistants: make([][]grid.Point, harmony.Slots),
		history:         history.New(opts.MaxSteps),
	}
	s.logger = logger.With("session", s.ID.String())
	s.Backup()
	s.logger.Debug("session created", "rule", s.colors.Rule(), "anchor", anchor.Hex())
	return s
}

// Logger returns the session's logger.
func (s *Session) Logger() hclog.Logger { return s.logger }

// Subscribe registers an observer.
func (s *Session) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Session) notify(kind Kind, slot int) {
	c := Change{Kind: kind, Slot: slot}
	for _, o := range s.observers {
		o.OnChange(c)
	}
}

// Slots returns the five colours.
func (s *Session) Slots() [harmony.Slots]colour.Color { return s.colors.Slots() }

// Rule returns the active harmony rule.
func (s *Session) Rule() harmony.Rule { return s.colors.Rule() }

// Sync returns the synchronization mode.
func (s *Session) Sync() harmony.Sync { return s.colors.Sync() }

// Activated returns the slot the user is working on.
func (s *Session) Activated() int { return s.colors.Activated() }

// GridParams returns a copy of the board parameters.
func (s *Session) GridParams() grid.Params {
	p := s.grid
	p.Locations = append([]grid.Point(nil), p.Locations...)
	p.Assistants = cloneAssistants(p.Assistants)
	return p
}

// ImageLocations returns where each colour was found in the source image.
func (s *Session) ImageLocations() []grid.Point {
	return append([]grid.Point(nil), s.imageLocations...)
}

// ImageAssistants returns the source-image locations of assistant colours.
func (s *Session) ImageAssistants() [][]grid.Point {
	out := make([][]grid.Point, len(s.imageAssistants))
	for i, l := range s.imageAssistants {
		out[i] = append([]grid.Point(nil), l...)
	}
	return out
}

// SetSlot writes one slot; the rule and synchronization decide how the
// other slots follow.
func (s *Session) SetSlot(i int, c colour.Color) {
	s.colors.SetSlot(i, c)
	s.logger.Debug("slot set", "slot", i, "hex", c.Hex(), "rule", s.colors.Rule())
	s.notify(KindSlots, i)
}

// SetChannel writes one channel of one slot.
func (s *Session) SetChannel(i int, ch colour.Channel, value float64) {
	s.colors.SetChannel(i, ch, value)
	s.logger.Debug("channel set", "slot", i, "channel", ch, "value", value)
	s.notify(KindSlots, i)
}

// SetRule switches the harmony rule.
func (s *Session) SetRule(r harmony.Rule) {
	if _, ok := harmony.ParseRule(string(r)); !ok {
		s.logger.Warn("unknown rule, using default", "rule", r)
	}
	s.colors.SetRule(r)
	s.notify(KindRule, -1)
}

// SetSync switches the synchronization mode.
func (s *Session) SetSync(m harmony.Sync) {
	if _, ok := harmony.ParseSync(string(m)); !ok {
		s.logger.Warn("unknown sync mode, using default", "sync", m)
	}
	s.colors.SetSync(m)
	s.notify(KindSync, -1)
}

// SetActivated selects the working slot.
func (s *Session) SetActivated(i int) {
	s.colors.SetActivated(i)
	s.notify(KindActivated, s.colors.Activated())
}

// Randomize draws a fresh colour set from the session's ranges.
func (s *Session) Randomize() {
	s.colors.Randomize(s.rng, s.ranges)
	s.logger.Debug("colour set randomized", "anchor", s.colors.Anchor().Hex())
	s.notify(KindSlots, -1)
}

// SetGridValues replaces the shaping factors. Values are normalised.
func (s *Session) SetGridValues(v grid.Values) {
	s.grid.Values = grid.NormValues(v)
	s.notify(KindGrid, -1)
}

// SetGridLocations replaces the anchor locations. A wrong-length slice
// restores the default layout.
func (s *Session) SetGridLocations(pts []grid.Point) {
	if len(pts) != harmony.Slots {
		s.logger.Warn("grid locations reset", "got", len(pts))
	}
	s.grid.Locations = grid.NormLocations(pts)
	s.notify(KindGrid, -1)
}

// SetGridAssistants replaces the assistant lists.
func (s *Session) SetGridAssistants(as [][]grid.Assistant) {
	if len(as) != harmony.Slots {
		s.logger.Warn("grid assistants reset", "got", len(as))
	}
	s.grid.Assistants = grid.NormAssistants(as)
	s.notify(KindGrid, -1)
}

// SetGridList sets or, with an empty list, clears the literal board.
func (s *Session) SetGridList(l grid.Literal) {
	s.grid.List = grid.Literal{
		Hexes: append([]string(nil), l.Hexes...),
		Names: append([]string(nil), l.Names...),
	}
	s.notify(KindGrid, -1)
}

// SetImageAssistants replaces the source-image locations of assistant
// colours. Points are clamped; a wrong-length slice clears them.
func (s *Session) SetImageAssistants(pts [][]grid.Point) {
	s.imageAssistants = normImageAssistants(pts)
	s.notify(KindImage, -1)
}

// ApplyExtraction loads an extracted palette. The set switches to Custom
// since five arbitrary colours satisfy no named rule.
func (s *Session) ApplyExtraction(res extract.Result) {
	s.colors.Replace(res.Colors)
	s.imageLocations = grid.NormLocations(res.Locations[:])
	s.imageAssistants = make([][]grid.Point, harmony.Slots)
	s.logger.Debug("extraction applied", "colors", res.Hexes())
	s.notify(KindImage, -1)
	s.notify(KindSlots, -1)
}

// Board synthesizes the current board.
func (s *Session) Board() grid.Grid {
	return grid.Synthesize(s.colors.Slots(), s.grid)
}

// Backup records the current state. Reports whether a new entry was added.
func (s *Session) Backup() bool {
	added := s.history.Backup(s.Snapshot())
	if added {
		s.logger.Debug("history recorded", "index", s.history.Index(), "entries", s.history.Len())
	}
	return added
}

// Undo restores the previous history entry.
func (s *Session) Undo() bool {
	return s.history.Undo(s.restoreEntry)
}

// Redo restores the next history entry.
func (s *Session) Redo() bool {
	return s.history.Redo(s.restoreEntry)
}

// History exposes the undo log for inspection.
func (s *Session) History() *history.Log { return s.history }

func (s *Session) restoreEntry(st history.State) {
	if err := s.Restore(st); err != nil {
		s.logger.Error("failed to restore history entry", "error", err)
	}
}

func normImageAssistants(pts [][]grid.Point) [][]grid.Point {
	out := make([][]grid.Point, harmony.Slots)
	if len(pts) != harmony.Slots {
		return out
	}
	for i, list := range pts {
		for _, p := range list {
			out[i] = append(out[i], p.Clamp())
		}
	}
	return out
}

func cloneAssistants(as [][]grid.Assistant) [][]grid.Assistant {
	out := make([][]grid.Assistant, len(as))
	for i, l := range as {
		out[i] = append([]grid.Assistant(nil), l...)
	}
	return out
}
