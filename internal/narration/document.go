// Package narration models docent narration scripts: time-ranged paragraphs
// made of sentences, and an index that maps a playback position onto the
// paragraph and sentence to highlight.
package narration

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNegativeRange      = errors.New("paragraph ends before it starts")
	ErrUnordered          = errors.New("paragraphs are not ordered by start time")
	ErrOverlap            = errors.New("paragraph ranges overlap")
	ErrDuplicateID        = errors.New("duplicate paragraph id")
	ErrSentenceOutOfRange = errors.New("sentence starts outside its paragraph")
	ErrSentenceUnordered  = errors.New("sentences are not ordered by start time")
)

// Sentence is one highlighted unit of narration text. It lasts until the next
// sentence starts, or until its paragraph ends.
type Sentence struct {
	Start time.Duration
	Text  string
}

// Paragraph is a time range [Start, End) of narration.
type Paragraph struct {
	ID        int64
	Start     time.Duration
	End       time.Duration
	Sentences []Sentence
}

// Contains reports whether at falls in [Start, End).
func (p Paragraph) Contains(at time.Duration) bool {
	return at >= p.Start && at < p.End
}

// Text joins the paragraph's sentences with single spaces.
func (p Paragraph) Text() string {
	texts := make([]string, len(p.Sentences))
	for i, s := range p.Sentences {
		texts[i] = s.Text
	}
	return strings.Join(texts, " ")
}

// Document is a validated, immutable narration script.
type Document struct {
	paragraphs []Paragraph
}

// NewDocument validates paragraphs and copies them into a Document. An empty
// script is valid; nothing is ever active in it.
func NewDocument(paragraphs []Paragraph) (*Document, error) {
	seen := make(map[int64]struct{}, len(paragraphs))
	copied := make([]Paragraph, len(paragraphs))
	for i, p := range paragraphs {
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("paragraph %d: %w", p.ID, ErrDuplicateID)
		}
		seen[p.ID] = struct{}{}

		if p.End < p.Start {
			return nil, fmt.Errorf("paragraph %d [%v, %v): %w", p.ID, p.Start, p.End, ErrNegativeRange)
		}
		if i > 0 {
			prev := paragraphs[i-1]
			if p.Start < prev.Start {
				return nil, fmt.Errorf("paragraph %d starts at %v before paragraph %d at %v: %w",
					p.ID, p.Start, prev.ID, prev.Start, ErrUnordered)
			}
			if p.Start < prev.End {
				return nil, fmt.Errorf("paragraph %d starts at %v inside paragraph %d ending %v: %w",
					p.ID, p.Start, prev.ID, prev.End, ErrOverlap)
			}
		}

		for j, s := range p.Sentences {
			if !p.Contains(s.Start) {
				return nil, fmt.Errorf("paragraph %d sentence %d at %v: %w", p.ID, j, s.Start, ErrSentenceOutOfRange)
			}
			if j > 0 && s.Start < p.Sentences[j-1].Start {
				return nil, fmt.Errorf("paragraph %d sentence %d: %w", p.ID, j, ErrSentenceUnordered)
			}
		}

		sentences := make([]Sentence, len(p.Sentences))
		copy(sentences, p.Sentences)
		p.Sentences = sentences
		copied[i] = p
	}

	return &Document{paragraphs: copied}, nil
}

// Len returns the number of paragraphs.
func (d *Document) Len() int { return len(d.paragraphs) }

// Paragraph returns the i-th paragraph.
func (d *Document) Paragraph(i int) Paragraph { return d.paragraphs[i] }

// Paragraphs returns a copy of all paragraphs.
func (d *Document) Paragraphs() []Paragraph {
	out := make([]Paragraph, len(d.paragraphs))
	copy(out, d.paragraphs)
	return out
}

// Duration is the end of the last paragraph, or zero for an empty script.
func (d *Document) Duration() time.Duration {
	if len(d.paragraphs) == 0 {
		return 0
	}
	return d.paragraphs[len(d.paragraphs)-1].End
}

// Gaps returns the [end, nextStart) ranges where no paragraph is active.
func (d *Document) Gaps() [][2]time.Duration {
	var gaps [][2]time.Duration
	for i := 1; i < len(d.paragraphs); i++ {
		prevEnd, start := d.paragraphs[i-1].End, d.paragraphs[i].Start
		if start > prevEnd {
			gaps = append(gaps, [2]time.Duration{prevEnd, start})
		}
	}
	return gaps
}
