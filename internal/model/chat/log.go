package chat

import "errors"

var (
	ErrIndexOutOfRange = errors.New("turn index out of range")
	ErrNothingSelected = errors.New("no turn selected")
)

// Log is the append-only conversation history of one session together with
// the cursor of the turn currently on display. It is not safe for concurrent
// use; the owning service serializes access.
type Log struct {
	turns    []Turn
	selected int // -1 when absent
}

// NewLog returns an empty log with no selection.
func NewLog() *Log {
	return &Log{turns: make([]Turn, 0, 16), selected: -1}
}

// Append adds a turn and moves the cursor onto it. It returns the new index.
func (l *Log) Append(turn Turn) int {
	l.turns = append(l.turns, turn)
	l.selected = len(l.turns) - 1
	return l.selected
}

// Len returns the number of turns.
func (l *Log) Len() int {
	return len(l.turns)
}

// At returns the turn at index.
func (l *Log) At(index int) (Turn, error) {
	if index < 0 || index >= len(l.turns) {
		return Turn{}, ErrIndexOutOfRange
	}
	return l.turns[index], nil
}

// Turns returns a copy of every turn in chronological order.
func (l *Log) Turns() []Turn {
	copied := make([]Turn, len(l.turns))
	copy(copied, l.turns)
	return copied
}

// Select moves the cursor to index.
func (l *Log) Select(index int) error {
	if index < 0 || index >= len(l.turns) {
		return ErrIndexOutOfRange
	}
	l.selected = index
	return nil
}

// Selected returns the turn under the cursor and its index.
func (l *Log) Selected() (Turn, int, error) {
	if l.selected < 0 {
		return Turn{}, -1, ErrNothingSelected
	}
	return l.turns[l.selected], l.selected, nil
}

// History lists the turns newest first, the way the sidebar shows them.
func (l *Log) History() []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(l.turns))
	for i := len(l.turns) - 1; i >= 0; i-- {
		entries = append(entries, HistoryEntry{Index: i, Preview: l.turns[i].Preview()})
	}
	return entries
}
