// Package envelope builds the attack/decay gain curve applied to rendered
// notes.
//
// The attack follows f(t) = e^-t * t^atk (atk = attack time in seconds),
// which peaks at t = atk; a constant normalizes that peak to 1. The decay
// reuses f on [atk, 2*atk], tilted by a linear factor so it ends exactly
// on the requested level, and stretched over the decay span.
package envelope

import (
	"errors"
	"math"

	"github.com/binaryphile/tonesynth/internal/apperr"
	"github.com/binaryphile/tonesynth/internal/config"
	"github.com/binaryphile/tonesynth/internal/synth"
)

var (
	ErrParameters    = errors.New("invalid envelope parameters")
	ErrShapeMismatch = errors.New("signal shorter than envelope")
)

// ADSR describes the attack and decay stages. Times are milliseconds from
// the start of the note.
type ADSR struct {
	AttackMs      float64 `json:"attackMs"`   // time of the peak (gain 1)
	DecayEndMs    float64 `json:"decayEndMs"` // end of the decay stage
	DecayEndLevel float64 `json:"level"`      // gain at DecayEndMs, below 1
}

// Validate rejects negative values, an attack after the decay end and a
// decay level of 1 or more.
func (e ADSR) Validate() error {
	if !(e.AttackMs >= 0 && e.DecayEndMs >= 0 && e.DecayEndLevel >= 0) ||
		e.AttackMs > e.DecayEndMs || !(e.DecayEndLevel < 1) {
		return apperr.Errorf(apperr.Validation, "envelope", "%w: attack %g ms, decay end %g ms, level %g",
			ErrParameters, e.AttackMs, e.DecayEndMs, e.DecayEndLevel)
	}
	return nil
}

type shape struct {
	atk, decay  float64 // seconds
	level       float64
	norm        float64
	alpha, beta float64
}

func (e ADSR) shape() shape {
	s := shape{
		atk:   e.AttackMs / 1000.0,
		decay: e.DecayEndMs / 1000.0,
		level: e.DecayEndLevel,
	}
	s.norm = math.Exp(s.atk) / math.Pow(s.atk, s.atk)

	// factor needed at x = 2*atk to land on the decay level
	c := s.level / (math.Exp(-2*s.atk) * math.Pow(2*s.atk, s.atk) * s.norm)
	s.alpha = (c - 1) / s.atk
	s.beta = 2 - c
	return s
}

func (s shape) attack(t float64) float64 {
	return s.norm * math.Exp(-t) * math.Pow(t, s.atk)
}

func (s shape) decayAt(x float64) float64 {
	return s.norm * math.Exp(-x) * math.Pow(x, s.atk) * (s.alpha*x + s.beta)
}

// At evaluates the curve at t seconds. A zero attack degenerates into a
// straight line from 1 down to the level; an attack equal to the decay end
// holds the peak.
func (e ADSR) At(t float64) float64 {
	s := e.shape()
	switch {
	case s.atk == 0:
		if s.decay == 0 || t >= s.decay {
			return s.level
		}
		return 1 + (s.level-1)*math.Max(t, 0)/s.decay
	case t < s.atk:
		return s.attack(math.Max(t, 0))
	case s.decay == s.atk:
		return 1
	}
	return s.decayAt(s.atk + (t-s.atk)*s.atk/(s.decay-s.atk))
}

// Curve samples the envelope over its full length, which follows the same
// legacy length rule as the waveform generators.
func (e ADSR) Curve(audio config.Audio) ([]float64, error) {
	if err := audio.FormatErr(); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	s := e.shape()
	rate := float64(audio.SampleRate)
	out := make([]float64, synth.Length(audio, int(e.DecayEndMs)))

	if s.atk == 0 {
		span := s.decay * rate
		for i := range out {
			out[i] = 1 + (s.level-1)*math.Min(float64(i)/span, 1)
		}
		return out, nil
	}

	peak := min(int(s.atk*rate), len(out))
	for i := 0; i < peak; i++ {
		out[i] = s.attack(float64(i) / rate)
	}
	if s.decay == s.atk {
		for i := peak; i < len(out); i++ {
			out[i] = 1
		}
		return out, nil
	}

	dx := s.atk / ((s.decay - s.atk) * rate)
	for i := peak; i < len(out); i++ {
		out[i] = s.decayAt(s.atk + float64(i-peak)*dx)
	}
	return out, nil
}

// Apply multiplies signal by gain sample by sample. The signal must be at
// least as long as the gain curve; the result has the curve's length.
func Apply(signal, gain []float64) ([]float64, error) {
	if len(signal) < len(gain) {
		return nil, apperr.Errorf(apperr.ShapeMismatch, "envelope.Apply", "%w: %d samples, envelope %d",
			ErrShapeMismatch, len(signal), len(gain))
	}
	out := make([]float64, len(gain))
	for i, g := range gain {
		out[i] = signal[i] * g
	}
	return out, nil
}
