package narration

import "time"

// Tracker follows a stream of playback positions and reports only when the
// active segment changes. It is driven from the UI loop and is not safe for
// concurrent use.
type Tracker struct {
	index  *Index
	at     time.Duration
	pos    Position
	primed bool
}

// NewTracker starts a tracker with nothing active.
func NewTracker(index *Index) *Tracker {
	return &Tracker{index: index, pos: None}
}

// Update records the playback position and reports whether the active
// paragraph or sentence changed. The first call always reports a change.
func (t *Tracker) Update(at time.Duration) (Position, bool) {
	t.at = at
	next := t.index.Locate(at)
	changed := !t.primed || next != t.pos
	t.pos = next
	t.primed = true
	return next, changed
}

// Position returns the last computed position.
func (t *Tracker) Position() Position { return t.pos }

// At returns the last playback time passed to Update.
func (t *Tracker) At() time.Duration { return t.at }

// Index returns the underlying index.
func (t *Tracker) Index() *Index { return t.index }
