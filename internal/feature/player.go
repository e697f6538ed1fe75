package feature

import (
	"time"

	"docent/internal/narration"
)

// Player is the playback clock of the narration screen. It moves a position
// through the script and reports when the highlighted paragraph or sentence
// changes. Like the tracker it wraps, it belongs to the UI goroutine.
type Player struct {
	tracker  *narration.Tracker
	duration time.Duration
	step     time.Duration
	at       time.Duration
	playing  bool
}

// NewPlayer starts paused at zero. step is the seek distance of SeekBy(±1).
func NewPlayer(index *narration.Index, step time.Duration) *Player {
	p := &Player{
		tracker:  narration.NewTracker(index),
		duration: index.Document().Duration(),
		step:     step,
	}
	p.tracker.Update(0)
	return p
}

func (p *Player) Play() {
	if p.Ended() {
		p.at = 0
		p.tracker.Update(0)
	}
	p.playing = true
}

func (p *Player) Pause() { p.playing = false }

// Toggle flips between playing and paused and reports the new state.
func (p *Player) Toggle() bool {
	if p.playing {
		p.Pause()
	} else {
		p.Play()
	}
	return p.playing
}

func (p *Player) Playing() bool { return p.playing }

// Ended reports whether the clock has reached the end of the script.
func (p *Player) Ended() bool { return p.at >= p.duration }

// Advance moves the clock by elapsed while playing. Reaching the end pauses.
func (p *Player) Advance(elapsed time.Duration) (narration.Position, bool) {
	if !p.playing || elapsed <= 0 {
		return p.tracker.Position(), false
	}
	pos, changed := p.set(p.at + elapsed)
	if p.Ended() {
		p.playing = false
	}
	return pos, changed
}

// Seek jumps to at, clamped to the script.
func (p *Player) Seek(at time.Duration) (narration.Position, bool) {
	return p.set(at)
}

// SeekBy moves by n seek steps; negative n goes back.
func (p *Player) SeekBy(n int) (narration.Position, bool) {
	return p.set(p.at + time.Duration(n)*p.step)
}

func (p *Player) set(at time.Duration) (narration.Position, bool) {
	if at < 0 {
		at = 0
	}
	if at > p.duration {
		at = p.duration
	}
	p.at = at
	return p.tracker.Update(at)
}

// At is the current playback time.
func (p *Player) At() time.Duration { return p.at }

// Duration is the end of the last paragraph.
func (p *Player) Duration() time.Duration { return p.duration }

// Position is the active paragraph and sentence.
func (p *Player) Position() narration.Position { return p.tracker.Position() }

// Paragraph returns the active paragraph, if any.
func (p *Player) Paragraph() (narration.Paragraph, bool) {
	return p.tracker.Index().Paragraph(p.at)
}

// Sentence returns the active sentence, if any.
func (p *Player) Sentence() (narration.Sentence, bool) {
	return p.tracker.Index().Sentence(p.at)
}

// Document returns the script being played.
func (p *Player) Document() *narration.Document {
	return p.tracker.Index().Document()
}
