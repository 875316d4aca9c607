package session

import (
	"encoding/json"
	"fmt"

	"github.com/jmylchreest/rickrack/internal/grid"
	"github.com/jmylchreest/rickrack/internal/harmony"
	"github.com/jmylchreest/rickrack/internal/history"
)

// Field positions within a history.State.
const (
	fieldColors = iota
	fieldLocations
	fieldAssistants
	fieldList
	fieldValues
	fieldImage
)

type imageState struct {
	Locations  []grid.Point   `json:"locations"`
	Assistants [][]grid.Point `json:"assistants"`
}

// Snapshot encodes the full session state as a history.State. Each field is
// an independent JSON document so unchanged parts hash identically.
func (s *Session) Snapshot() history.State {
	var st history.State
	put := func(i int, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			// Only plain structs of numbers and strings are encoded.
			s.logger.Error("failed to encode session field", "field", i, "error", err)
			return
		}
		st[i] = string(data)
	}
	put(fieldColors, s.colors.Backup())
	put(fieldLocations, s.grid.Locations)
	put(fieldAssistants, s.grid.Assistants)
	put(fieldList, s.grid.List)
	put(fieldValues, s.grid.Values)
	put(fieldImage, imageState{Locations: s.imageLocations, Assistants: s.imageAssistants})
	return st
}

// Restore replaces the session state with a decoded snapshot. Every field is
// decoded before anything is applied, so a malformed state leaves the
// session untouched. Decoded values are normalised like user input.
func (s *Session) Restore(st history.State) error {
	var (
		snap   harmony.Snapshot
		locs   []grid.Point
		assts  [][]grid.Assistant
		list   grid.Literal
		values grid.Values
		img    imageState
	)
	targets := [history.Fields]any{&snap, &locs, &assts, &list, &values, &img}
	for i, target := range targets {
		if err := json.Unmarshal([]byte(st[i]), target); err != nil {
			return fmt.Errorf("failed to decode session field %d: %w", i, err)
		}
	}

	s.colors.Recover(snap)
	s.grid = grid.Params{
		Values:     values,
		Locations:  locs,
		Assistants: assts,
		List:       list,
	}.Norm()
	s.imageLocations = grid.NormLocations(img.Locations)
	s.imageAssistants = normImageAssistants(img.Assistants)

	s.logger.Debug("session restored", "rule", s.colors.Rule(), "anchor", s.colors.Anchor().Hex())
	s.notify(KindRestore, -1)
	return nil
}
