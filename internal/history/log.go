// Package history records editing states for undo and redo.
//
// A state is six independently encoded fields. Entries are compared by a
// two-level digest so that recording an unchanged state is a no-op.
package history

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// Fields is the number of tracked state fields.
	Fields = 6

	// DefaultMaxSteps is the capacity of a new log.
	DefaultMaxSteps = 100

	fieldHashLen = 10
)

// State holds the canonical encoding of each tracked field.
type State [Fields]string

// Entry is one recorded state and its digest.
type Entry struct {
	State State
	Hash  string
}

// Hash digests each field separately, keeps the first ten hex characters
// of each, and digests the concatenation. It is an equality key, not an
// integrity check.
func Hash(s State) string {
	var b strings.Builder
	for _, f := range s {
		sum := sha256.Sum256([]byte(f))
		b.WriteString(hex.EncodeToString(sum[:])[:fieldHashLen])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Log is a bounded undo/redo list with a cursor. It is not safe for
// concurrent use; the moving and backing flags only guard against
// re-entry from a restore callback.
type Log struct {
	entries  []Entry
	index    int
	maxSteps int

	moving  bool
	backing bool
}

// New creates an empty log holding at most maxSteps entries.
// Values below 1 select DefaultMaxSteps.
func New(maxSteps int) *Log {
	l := &Log{}
	l.SetMaxSteps(maxSteps)
	return l
}

// Len returns the number of recorded entries.
func (l *Log) Len() int { return len(l.entries) }

// Index returns the cursor position, or -1 for an empty log.
func (l *Log) Index() int {
	if len(l.entries) == 0 {
		return -1
	}
	return l.index
}

// MaxSteps returns the capacity.
func (l *Log) MaxSteps() int { return l.maxSteps }

// CanUndo reports whether Undo would move the cursor.
func (l *Log) CanUndo() bool { return len(l.entries) > 0 && l.index > 0 }

// CanRedo reports whether Redo would move the cursor.
func (l *Log) CanRedo() bool { return l.index < len(l.entries)-1 }

// Current returns the entry under the cursor.
func (l *Log) Current() (Entry, bool) {
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[l.index], true
}

// SetMaxSteps changes the capacity, evicting the oldest entries if the log
// is now over it. The cursor moves back by the number evicted.
func (l *Log) SetMaxSteps(n int) {
	if n < 1 {
		n = DefaultMaxSteps
	}
	l.maxSteps = n
	l.evict()
}

// Backup records s after the cursor, discarding any redo branch. It does
// nothing while an undo or redo is restoring state, or when s matches the
// newest entry; in that case the cursor and any redo branch are kept.
// Reports whether an entry was added.
func (l *Log) Backup(s State) bool {
	if l.moving || l.backing {
		return false
	}
	l.backing = true
	defer func() { l.backing = false }()

	h := Hash(s)
	if n := len(l.entries); n > 0 && l.entries[n-1].Hash == h {
		return false
	}

	if len(l.entries) > 0 {
		l.entries = l.entries[:l.index+1]
	}
	l.entries = append(l.entries, Entry{State: s, Hash: h})
	l.index = len(l.entries) - 1
	l.evict()
	return true
}

// Undo moves the cursor back one entry and passes its state to restore.
// It does nothing at the oldest entry or while a backup is running.
func (l *Log) Undo(restore func(State)) bool {
	if l.backing || l.moving || !l.CanUndo() {
		return false
	}
	return l.move(-1, restore)
}

// Redo moves the cursor forward one entry and passes its state to restore.
// It does nothing at the newest entry or while a backup is running.
func (l *Log) Redo(restore func(State)) bool {
	if l.backing || l.moving || !l.CanRedo() {
		return false
	}
	return l.move(1, restore)
}

func (l *Log) move(step int, restore func(State)) bool {
	l.moving = true
	defer func() { l.moving = false }()

	l.index += step
	if restore != nil {
		restore(l.entries[l.index].State)
	}
	return true
}

func (l *Log) evict() {
	drop := len(l.entries) - l.maxSteps
	if drop <= 0 {
		return
	}
	l.entries = append([]Entry(nil), l.entries[drop:]...)
	l.index = max(l.index-drop, 0)
}
