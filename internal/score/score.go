// Package score provides JSON parsing for chord scores: a sequence of
// chords, each rendered from note names through a waveform, a combiner and
// an optional envelope.
package score

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/binaryphile/tonesynth/internal/config"
	"github.com/binaryphile/tonesynth/internal/envelope"
	"github.com/binaryphile/tonesynth/internal/synth"
	"github.com/binaryphile/tonesynth/internal/wavfile"
)

// Mix modes for combining the voices of a chord.
const (
	MixNormalize = "normalize"
	MixLinear    = "linear"
	MixLog       = "log"
	MixArpeggio  = "arpeggio"
)

// DefaultThreshold is the soft-clip threshold used when a chord sets none.
const DefaultThreshold = 0.5

// Score represents a score document.
type Score struct {
	Title  string        `json:"title"`
	Artist string        `json:"artist"`
	Audio  *config.Audio `json:"audio,omitempty"`

	// Channels is 1 (or 0) for mono output, 2 for the signal on both
	// channels. Fingerprints are taken over the output format.
	Channels int `json:"channels,omitempty"`

	Chords []Chord `json:"chords"`
}

// Chord is one step of the score. Zero values take defaults: sine wave,
// the session duration, full amplitude, normalize mix. A nil Threshold
// means DefaultThreshold.
type Chord struct {
	Notes      []string       `json:"notes"`
	Wave       string         `json:"wave"`
	DurationMs int            `json:"durationMs"`
	Amplitude  float64        `json:"amplitude"`
	Mix        string         `json:"mix"`
	Threshold  *float64       `json:"threshold,omitempty"`
	Envelope   *envelope.ADSR `json:"envelope,omitempty"`
}

// ParseJSON reads and parses a score JSON file.
func ParseJSON(path string) (*Score, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read score: %w", err)
	}
	return Parse(data)
}

// Parse decodes a score document.
func Parse(data []byte) (*Score, error) {
	var s Score
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse score: %w", err)
	}
	return &s, nil
}

// AudioOr returns the score's own audio settings. Fields the document
// leaves out, or the whole object, come from fallback.
func (s *Score) AudioOr(fallback config.Audio) config.Audio {
	if s.Audio == nil {
		return fallback
	}
	audio := *s.Audio
	if audio.SampleRate == 0 {
		audio.SampleRate = fallback.SampleRate
	}
	if audio.BitsPerSample == 0 {
		audio.BitsPerSample = fallback.BitsPerSample
	}
	if audio.DurationMs == 0 {
		audio.DurationMs = fallback.DurationMs
	}
	return audio
}

// Validate checks required fields and chord parameters and returns every
// problem found. All issues are reported - caller decides whether to proceed.
func (s *Score) Validate() []error {
	var errs []error

	if s.Title == "" {
		errs = append(errs, errors.New("missing required field: title"))
	}
	if len(s.Chords) == 0 {
		errs = append(errs, errors.New("missing required field: chords"))
	}
	if s.Channels < 0 || s.Channels > 2 {
		errs = append(errs, fmt.Errorf("channels must be 1 or 2, got %d", s.Channels))
	}
	if s.Audio != nil {
		for _, err := range s.AudioOr(config.DefaultAudio()).Validate() {
			errs = append(errs, fmt.Errorf("audio: %w", err))
		}
	}

	for i, c := range s.Chords {
		for _, err := range c.validate() {
			errs = append(errs, fmt.Errorf("chord %d: %w", i+1, err))
		}
	}

	return errs
}

func (c Chord) validate() []error {
	var errs []error

	if len(c.Notes) == 0 {
		errs = append(errs, errors.New("no notes"))
	}
	for _, n := range c.Notes {
		if _, ok := synth.Frequency(n); !ok {
			errs = append(errs, fmt.Errorf("unknown note %q", n))
		}
	}
	if _, err := c.kind(); err != nil {
		errs = append(errs, err)
	}
	if c.DurationMs < 0 {
		errs = append(errs, fmt.Errorf("negative duration %d ms", c.DurationMs))
	}
	if a := c.Amplitude; a < 0 || a > 1 {
		errs = append(errs, fmt.Errorf("amplitude %g outside [0,1]", a))
	}

	switch c.mix() {
	case MixNormalize, MixArpeggio:
	case MixLinear, MixLog:
		if t := c.threshold(); t < 0 || t >= 1 {
			errs = append(errs, fmt.Errorf("threshold %g outside [0,1)", t))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mix %q", c.Mix))
	}

	if c.Envelope != nil {
		if err := c.Envelope.Validate(); err != nil {
			errs = append(errs, err)
		}
		if c.DurationMs > 0 && c.Envelope.DecayEndMs > float64(c.DurationMs) {
			errs = append(errs, fmt.Errorf("envelope ends at %g ms, after the chord's %d ms",
				c.Envelope.DecayEndMs, c.DurationMs))
		}
	}

	return errs
}

// Format returns the WAV format the score renders to.
func (s *Score) Format(audio config.Audio) wavfile.Format {
	if s.Channels == 2 {
		return wavfile.StereoFormat(audio)
	}
	return wavfile.MonoFormat(audio)
}

func (c Chord) kind() (synth.Kind, error) {
	if c.Wave == "" {
		return synth.Sine, nil
	}
	return synth.ParseKind(c.Wave)
}

func (c Chord) mix() string {
	if c.Mix == "" {
		return MixNormalize
	}
	return strings.ToLower(c.Mix)
}

func (c Chord) threshold() float64 {
	if c.Threshold == nil {
		return DefaultThreshold
	}
	return *c.Threshold
}

func (c Chord) amplitude() float64 {
	if c.Amplitude == 0 {
		return 1
	}
	return c.Amplitude
}

func (c Chord) duration(audio config.Audio) int {
	if c.DurationMs == 0 {
		return audio.DurationMs
	}
	return c.DurationMs
}
