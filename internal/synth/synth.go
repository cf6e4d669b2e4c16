// Package synth generates normalized sample buffers for simple periodic
// waveforms and white noise.
//
// Buffer lengths follow the legacy expression
// bits * rate * (durationMs/1000) >> 4, so whole seconds only and a length
// that scales with bit depth. Triangle and noise output is not
// zero-centered. Both quirks are kept for compatibility with existing files.
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/binaryphile/tonesynth/internal/apperr"
	"github.com/binaryphile/tonesynth/internal/config"
)

// Kind selects a waveform.
type Kind int

const (
	Sine Kind = iota
	Sawtooth
	Triangle
	Rectangle
	Noise
)

var kindNames = [...]string{"sine", "saw", "triangle", "rectangle", "noise"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind accepts the names printed by String plus a few aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sine", "sin":
		return Sine, nil
	case "saw", "sawtooth":
		return Sawtooth, nil
	case "triangle", "tri":
		return Triangle, nil
	case "rectangle", "square", "rect":
		return Rectangle, nil
	case "noise", "white", "random":
		return Noise, nil
	}
	return 0, apperr.Errorf(apperr.Validation, "synth.ParseKind", "%w: %q", ErrKind, s)
}

var (
	ErrAmplitude = errors.New("amplitude out of range")
	ErrFrequency = errors.New("frequency out of range")
	ErrDuration  = errors.New("duration must not be negative")
	ErrKind      = errors.New("unknown waveform")
)

// Length is the number of samples generated for durationMs.
func Length(audio config.Audio, durationMs int) int {
	return audio.BitsPerSample * audio.SampleRate * (durationMs / 1000) >> 4
}

// Generator produces waveforms for one audio configuration. A Generator
// built with a nil source draws phase offsets from the global generator and
// is safe for concurrent use; one with an explicit source is not.
type Generator struct {
	audio config.Audio
	rnd   *rand.Rand
}

// New creates a Generator. Pass a seeded source to make phase offsets
// reproducible.
func New(audio config.Audio, rnd *rand.Rand) *Generator {
	return &Generator{audio: audio, rnd: rnd}
}

// NewSeeded creates a Generator with a PCG source seeded from seed.
func NewSeeded(audio config.Audio, seed uint64) *Generator {
	return New(audio, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Audio returns the configuration the generator was built with.
func (g *Generator) Audio() config.Audio { return g.audio }

// Fork derives an independent Generator for use on another goroutine.
// Forks taken in the same order from the same seed are identical.
func (g *Generator) Fork() *Generator {
	if g.rnd == nil {
		return g
	}
	return New(g.audio, rand.New(rand.NewPCG(g.rnd.Uint64(), g.rnd.Uint64())))
}

func (g *Generator) uniform() float64 {
	if g.rnd == nil {
		return rand.Float64()
	}
	return g.rnd.Float64()
}

// phaseOffset picks a start position within the first half period so that
// summed voices do not all begin in phase.
func (g *Generator) phaseOffset(freq float64) int {
	return int(float64(g.audio.SampleRate) * 0.5 * g.uniform() / freq)
}

func (g *Generator) validate(kind Kind, freq float64, durationMs int, amplitude float64) error {
	const op = "synth.Generate"
	if err := g.audio.FormatErr(); err != nil {
		return err
	}
	if durationMs < 0 {
		return apperr.Errorf(apperr.Validation, op, "%w: %d ms", ErrDuration, durationMs)
	}
	switch kind {
	case Sine, Rectangle:
		if !(amplitude > 0 && amplitude <= 1) {
			return apperr.Errorf(apperr.Validation, op, "%w: %s needs (0,1], got %g", ErrAmplitude, kind, amplitude)
		}
	case Sawtooth, Triangle, Noise:
		if !(amplitude >= 0 && amplitude <= 1) {
			return apperr.Errorf(apperr.Validation, op, "%w: %s needs [0,1], got %g", ErrAmplitude, kind, amplitude)
		}
	default:
		return apperr.Errorf(apperr.Validation, op, "%w: %s", ErrKind, kind)
	}
	if kind == Noise {
		return nil
	}
	if !(freq > 0) || math.IsInf(freq, 0) {
		return apperr.Errorf(apperr.Validation, op, "%w: %g Hz", ErrFrequency, freq)
	}
	if kind == Sawtooth && int(float64(g.audio.SampleRate)/freq) < 1 {
		return apperr.Errorf(apperr.Validation, op, "%w: %g Hz has a period under one sample at %d Hz",
			ErrFrequency, freq, g.audio.SampleRate)
	}
	return nil
}

// Generate renders durationMs of the given waveform. Noise ignores freq.
// Out-of-range parameters return a nil buffer and a Validation error.
func (g *Generator) Generate(kind Kind, freq float64, durationMs int, amplitude float64) ([]float64, error) {
	if err := g.validate(kind, freq, durationMs, amplitude); err != nil {
		return nil, err
	}

	rate := float64(g.audio.SampleRate)
	data := make([]float64, Length(g.audio, durationMs))

	switch kind {
	case Sine:
		angle := 2.0 * freq * math.Pi / rate
		offset := g.phaseOffset(freq)
		for i := range data {
			data[i] = amplitude * math.Sin(angle*float64(i+offset))
		}

	case Sawtooth:
		period := rate / freq
		whole := int(period)
		offset := g.phaseOffset(freq)
		for i := range data {
			data[i] = amplitude * (float64(2*((i+offset)%whole))/period - 1)
		}

	case Triangle:
		half := rate / freq / 2
		offset := g.phaseOffset(freq)
		for i := range data {
			data[i] = amplitude * (0.5 + math.Abs(math.Mod(float64(i+offset), 2*half)-half)/half)
		}

	case Rectangle:
		angle := 2.0 * freq * math.Pi / rate
		for i := range data {
			data[i] = amplitude * sign(math.Sin(angle*float64(i)))
		}

	case Noise:
		for i := range data {
			data[i] = amplitude * g.uniform()
		}
	}
	return data, nil
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return v
}

// Sine renders a sine wave.
func (g *Generator) Sine(freq float64, durationMs int, amplitude float64) ([]float64, error) {
	return g.Generate(Sine, freq, durationMs, amplitude)
}

// SineFull renders a full-scale sine wave.
func (g *Generator) SineFull(freq float64, durationMs int) ([]float64, error) {
	return g.Generate(Sine, freq, durationMs, 1)
}

// SineDefault renders a full-scale sine wave of the configured default length.
func (g *Generator) SineDefault(freq float64) ([]float64, error) {
	return g.Generate(Sine, freq, g.audio.DurationMs, 1)
}

func (g *Generator) Saw(freq float64, durationMs int, amplitude float64) ([]float64, error) {
	return g.Generate(Sawtooth, freq, durationMs, amplitude)
}

func (g *Generator) SawFull(freq float64, durationMs int) ([]float64, error) {
	return g.Generate(Sawtooth, freq, durationMs, 1)
}

func (g *Generator) SawDefault(freq float64) ([]float64, error) {
	return g.Generate(Sawtooth, freq, g.audio.DurationMs, 1)
}

func (g *Generator) Triangle(freq float64, durationMs int, amplitude float64) ([]float64, error) {
	return g.Generate(Triangle, freq, durationMs, amplitude)
}

func (g *Generator) TriangleFull(freq float64, durationMs int) ([]float64, error) {
	return g.Generate(Triangle, freq, durationMs, 1)
}

func (g *Generator) TriangleDefault(freq float64) ([]float64, error) {
	return g.Generate(Triangle, freq, g.audio.DurationMs, 1)
}

func (g *Generator) Rectangle(freq float64, durationMs int, amplitude float64) ([]float64, error) {
	return g.Generate(Rectangle, freq, durationMs, amplitude)
}

func (g *Generator) RectangleFull(freq float64, durationMs int) ([]float64, error) {
	return g.Generate(Rectangle, freq, durationMs, 1)
}

func (g *Generator) RectangleDefault(freq float64) ([]float64, error) {
	return g.Generate(Rectangle, freq, g.audio.DurationMs, 1)
}

// Noise renders uniform white noise in [0, amplitude).
func (g *Generator) Noise(durationMs int, amplitude float64) ([]float64, error) {
	return g.Generate(Noise, 0, durationMs, amplitude)
}

// NoiseLevel renders noise of the configured default length.
func (g *Generator) NoiseLevel(amplitude float64) ([]float64, error) {
	return g.Generate(Noise, 0, g.audio.DurationMs, amplitude)
}

func (g *Generator) NoiseDefault() ([]float64, error) {
	return g.Generate(Noise, 0, g.audio.DurationMs, 1)
}

// Generate renders a waveform with unseeded phase offsets.
func Generate(kind Kind, freq float64, durationMs int, amplitude float64, audio config.Audio) ([]float64, error) {
	return New(audio, nil).Generate(kind, freq, durationMs, amplitude)
}
