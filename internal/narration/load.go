package narration

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a narration script file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks a format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported narration file extension %q", filepath.Ext(path))
	}
}

// scriptFile is the on-disk shape: times are seconds as floats, the way the
// docent content service delivers them.
type scriptFile struct {
	Paragraphs []paragraphFile `json:"paragraphs" yaml:"paragraphs"`
}

type paragraphFile struct {
	ID        int64          `json:"id" yaml:"id"`
	StartTime float64        `json:"startTime" yaml:"startTime"`
	EndTime   float64        `json:"endTime" yaml:"endTime"`
	Sentences []sentenceFile `json:"sentences" yaml:"sentences"`
}

type sentenceFile struct {
	StartTime float64 `json:"startTime" yaml:"startTime"`
	Text      string  `json:"text" yaml:"text"`
}

// Seconds converts float seconds to a Duration, rounding to the nearest
// nanosecond so values like 9.999 survive intact.
func Seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// ErrInvalidTime is returned for times that are not finite or do not fit a
// time.Duration.
var ErrInvalidTime = errors.New("time is not a representable number of seconds")

// maxSeconds is the largest magnitude a Duration can hold, in seconds.
const maxSeconds = float64(math.MaxInt64) / float64(time.Second)

func parseSeconds(s float64) (time.Duration, error) {
	if math.IsNaN(s) || math.IsInf(s, 0) || math.Abs(s) >= maxSeconds {
		return 0, fmt.Errorf("%v: %w", s, ErrInvalidTime)
	}
	return Seconds(s), nil
}

// Decode reads and validates a narration script.
func Decode(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read narration: %w", err)
	}

	var sf scriptFile
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &sf)
	case FormatYAML:
		err = yaml.Unmarshal(data, &sf)
	default:
		return nil, fmt.Errorf("unsupported narration format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse narration: %w", err)
	}

	paragraphs := make([]Paragraph, len(sf.Paragraphs))
	for i, pf := range sf.Paragraphs {
		start, err := parseSeconds(pf.StartTime)
		if err != nil {
			return nil, fmt.Errorf("paragraph %d start: %w", pf.ID, err)
		}
		end, err := parseSeconds(pf.EndTime)
		if err != nil {
			return nil, fmt.Errorf("paragraph %d end: %w", pf.ID, err)
		}
		sentences := make([]Sentence, len(pf.Sentences))
		for j, s := range pf.Sentences {
			at, err := parseSeconds(s.StartTime)
			if err != nil {
				return nil, fmt.Errorf("paragraph %d sentence %d: %w", pf.ID, j, err)
			}
			sentences[j] = Sentence{Start: at, Text: s.Text}
		}
		paragraphs[i] = Paragraph{
			ID:        pf.ID,
			Start:     start,
			End:       end,
			Sentences: sentences,
		}
	}
	return NewDocument(paragraphs)
}

// LoadFile reads a script from disk, choosing the format by extension.
func LoadFile(path string) (*Document, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open narration: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
