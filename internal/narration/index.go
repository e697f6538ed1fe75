package narration

import (
	"sort"
	"time"
)

// Position identifies the active segment. -1 means none.
type Position struct {
	Paragraph int
	Sentence  int
}

// None is the position reported when nothing is active.
var None = Position{Paragraph: -1, Sentence: -1}

// Valid reports whether a paragraph is active.
func (p Position) Valid() bool { return p.Paragraph >= 0 }

// Index answers "what is playing at t" for one Document. It is built once and
// never mutated, so concurrent lookups are safe.
//
// Lookup policy:
//   - before the first paragraph starts: nothing is active;
//   - inside a gap between two paragraphs: nothing is active;
//   - at or after the end of the last paragraph: the last paragraph (and its
//     last sentence) stays active, so playback that runs slightly past the
//     authored end keeps its highlight.
type Index struct {
	doc    *Document
	starts []time.Duration
	// sentenceStarts[i] holds the sentence start times of paragraph i.
	sentenceStarts [][]time.Duration
}

// NewIndex builds the lookup tables for doc.
func NewIndex(doc *Document) *Index {
	idx := &Index{
		doc:            doc,
		starts:         make([]time.Duration, len(doc.paragraphs)),
		sentenceStarts: make([][]time.Duration, len(doc.paragraphs)),
	}
	for i, p := range doc.paragraphs {
		idx.starts[i] = p.Start
		ss := make([]time.Duration, len(p.Sentences))
		for j, s := range p.Sentences {
			ss[j] = s.Start
		}
		idx.sentenceStarts[i] = ss
	}
	return idx
}

// Document returns the indexed document.
func (x *Index) Document() *Document { return x.doc }

// lastStartingAtOrBefore returns the largest i with starts[i] <= at, or -1.
func lastStartingAtOrBefore(starts []time.Duration, at time.Duration) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > at }) - 1
}

// Locate returns the active paragraph and sentence positions at time at.
func (x *Index) Locate(at time.Duration) Position {
	pi := lastStartingAtOrBefore(x.starts, at)
	if pi < 0 {
		return None
	}

	p := x.doc.paragraphs[pi]
	last := pi == len(x.starts)-1
	pastEnd := at >= p.End
	if pastEnd && !last {
		return None // gap
	}

	ss := x.sentenceStarts[pi]
	if len(ss) == 0 {
		return Position{Paragraph: pi, Sentence: -1}
	}
	if pastEnd {
		return Position{Paragraph: pi, Sentence: len(ss) - 1}
	}
	// Sentence j spans [ss[j], ss[j+1]) or [ss[j], p.End) for the last one;
	// at < p.End here, so the only miss is before the first sentence.
	return Position{Paragraph: pi, Sentence: lastStartingAtOrBefore(ss, at)}
}

// Paragraph returns the paragraph active at time at.
func (x *Index) Paragraph(at time.Duration) (Paragraph, bool) {
	pos := x.Locate(at)
	if !pos.Valid() {
		return Paragraph{}, false
	}
	return x.doc.paragraphs[pos.Paragraph], true
}

// Sentence returns the sentence active at time at.
func (x *Index) Sentence(at time.Duration) (Sentence, bool) {
	pos := x.Locate(at)
	if pos.Sentence < 0 {
		return Sentence{}, false
	}
	return x.doc.paragraphs[pos.Paragraph].Sentences[pos.Sentence], true
}
