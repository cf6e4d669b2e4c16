package score

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/binaryphile/tonesynth/internal/apperr"
	"github.com/binaryphile/tonesynth/internal/config"
	"github.com/binaryphile/tonesynth/internal/envelope"
	"github.com/binaryphile/tonesynth/internal/mix"
	"github.com/binaryphile/tonesynth/internal/pcm"
	"github.com/binaryphile/tonesynth/internal/synth"
	"github.com/binaryphile/tonesynth/internal/wavfile"
)

// Result is a rendered score.
type Result struct {
	Signal   []float64
	PCM      []byte // Signal encoded in the manifest's format
	Manifest Manifest
}

// Manifest records what was rendered, with content fingerprints so two
// renders can be compared without keeping the audio around.
type Manifest struct {
	Title       string       `json:"title"`
	Artist      string       `json:"artist,omitempty"`
	Audio       config.Audio `json:"audio"`
	Channels    int          `json:"channels"`
	Samples     int          `json:"samples"`
	Fingerprint string       `json:"fingerprint"`
	Chords      []ChordEntry `json:"chords"`
}

// ChordEntry describes one rendered chord.
type ChordEntry struct {
	Index       int      `json:"index"`
	Notes       []string `json:"notes"`
	Wave        string   `json:"wave"`
	Mix         string   `json:"mix"`
	Offset      int      `json:"offset"` // first sample within the score
	Samples     int      `json:"samples"`
	Fingerprint string   `json:"fingerprint"`
}

// JSON returns the manifest as indented JSON.
func (m Manifest) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// ProgressFunc is called after each chord is finished.
type ProgressFunc func(done, total int)

// voice is one note of one chord, with the generator that renders it.
type voice struct {
	chord, index int
	gen          *synth.Generator
	kind         synth.Kind
	freq         float64
	durationMs   int
	amplitude    float64
}

// Render synthesizes every chord and concatenates them in score order.
//
// Voices render concurrently. Each voice gets its own fork of gen, taken in
// score order before any goroutine starts, so a seeded generator yields the
// same output on every run. progress may be nil.
func (s *Score) Render(ctx context.Context, gen *synth.Generator, progress ProgressFunc) (*Result, error) {
	const op = "score.Render"

	if errs := s.Validate(); len(errs) > 0 {
		return nil, apperr.New(apperr.Validation, op, errors.Join(errs...))
	}
	audio := gen.Audio()
	if err := audio.Err(); err != nil {
		return nil, err
	}

	voices := make([][][]float64, len(s.Chords))
	var jobs []voice
	for ci, c := range s.Chords {
		kind, _ := c.kind()
		voices[ci] = make([][]float64, len(c.Notes))
		for vi, name := range c.Notes {
			freq, _ := synth.Frequency(name)
			jobs = append(jobs, voice{
				chord:      ci,
				index:      vi,
				gen:        gen.Fork(),
				kind:       kind,
				freq:       freq,
				durationMs: c.duration(audio),
				amplitude:  c.amplitude(),
			})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, v := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			buf, err := v.gen.Generate(v.kind, v.freq, v.durationMs, v.amplitude)
			if err != nil {
				return fmt.Errorf("chord %d note %d: %w", v.chord+1, v.index+1, err)
			}
			voices[v.chord][v.index] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	format := s.Format(audio)
	result := &Result{
		Manifest: Manifest{
			Title:    s.Title,
			Artist:   s.Artist,
			Audio:    audio,
			Channels: format.Channels,
			Chords:   make([]ChordEntry, 0, len(s.Chords)),
		},
	}

	for ci, c := range s.Chords {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		signal, err := c.render(audio, voices[ci])
		if err != nil {
			return nil, fmt.Errorf("chord %d: %w", ci+1, err)
		}
		payload, err := encode(signal, format)
		if err != nil {
			return nil, err
		}

		kind, _ := c.kind()
		result.Manifest.Chords = append(result.Manifest.Chords, ChordEntry{
			Index:       ci + 1,
			Notes:       c.Notes,
			Wave:        kind.String(),
			Mix:         c.mix(),
			Offset:      len(result.Signal),
			Samples:     len(signal),
			Fingerprint: wavfile.Fingerprint(format, payload),
		})
		result.Signal = append(result.Signal, signal...)
		result.PCM = append(result.PCM, payload...)

		if progress != nil {
			progress(ci+1, len(s.Chords))
		}
	}

	result.Manifest.Samples = len(result.Signal)
	result.Manifest.Fingerprint = wavfile.Fingerprint(format, result.PCM)
	return result, nil
}

// render combines a chord's voices and applies its envelope.
func (c Chord) render(audio config.Audio, voices [][]float64) ([]float64, error) {
	signal, err := Combine(c.mix(), c.threshold(), voices...)
	if err != nil {
		return nil, err
	}
	if c.Envelope == nil {
		return signal, nil
	}
	gain, err := c.Envelope.Curve(audio)
	if err != nil {
		return nil, err
	}
	return envelope.Apply(signal, gain)
}

// Combine merges voices with the named mix mode.
func Combine(mode string, threshold float64, voices ...[]float64) ([]float64, error) {
	switch mode {
	case MixNormalize, "":
		return mix.Normalize(voices...)
	case MixLinear:
		return mix.Linear(threshold, voices...)
	case MixLog:
		return mix.Log(threshold, voices...)
	case MixArpeggio:
		return mix.Concat(voices...), nil
	}
	return nil, apperr.Errorf(apperr.Validation, "score.Combine", "unknown mix %q", mode)
}

// encode writes signal as PCM in format f, duplicated onto both channels
// for stereo.
func encode(signal []float64, f wavfile.Format) ([]byte, error) {
	if f.Channels == 2 {
		return pcm.Stereo(signal, signal, f.BitsPerSample)
	}
	return pcm.Mono(signal, f.BitsPerSample)
}

// ParseManifest reads a manifest written by Manifest.JSON.
func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// ChordSignal returns the samples of chord i (0-based) within the
// rendered score.
func (r *Result) ChordSignal(i int) []float64 {
	c := r.Manifest.Chords[i]
	return r.Signal[c.Offset : c.Offset+c.Samples]
}
