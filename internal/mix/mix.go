// Package mix merges sample buffers: back to back, summed with peak
// normalization, or summed through a linear or logarithmic soft clip.
//
// Inputs are never modified. Ragged inputs are padded with trailing zeros
// to the longest buffer before summing.
package mix

import (
	"errors"
	"math"

	"github.com/binaryphile/tonesynth/internal/apperr"
)

var (
	ErrNoSignal  = errors.New("no input signals")
	ErrThreshold = errors.New("threshold outside [0,1)")
)

// Concat places the buffers end to end in argument order.
func Concat(bufs ...[]float64) []float64 {
	n := 0
	for _, b := range bufs {
		n += len(b)
	}
	out := make([]float64, 0, n)
	for _, b := range bufs {
		out = append(out, b...)
	}
	return out
}

// Normalize sums the buffers and, if the summed peak exceeds 1, scales the
// whole result by 1/peak.
func Normalize(bufs ...[]float64) ([]float64, error) {
	if len(bufs) == 0 {
		return nil, apperr.New(apperr.Validation, "mix.Normalize", ErrNoSignal)
	}
	out := make([]float64, longest(bufs))
	for _, b := range bufs {
		for i, v := range b {
			out[i] += v
		}
	}

	peak := 1.0
	for _, v := range out {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak != 1.0 {
		scale := 1.0 / peak
		for i := range out {
			out[i] *= scale
		}
	}
	return out, nil
}

// Linear sums the buffers pairwise. Whenever the running sum leaves
// [-threshold, threshold] the excess is scaled by (1-t)/(2-t), which maps
// the largest possible sum of two normalized samples (2) onto 1.
// Inputs must already be in [-1, 1].
func Linear(threshold float64, bufs ...[]float64) ([]float64, error) {
	out, err := accumulate("mix.Linear", threshold, bufs)
	if err != nil || len(bufs) < 2 {
		return out, err
	}

	coeff := (1 - threshold) / (2 - threshold)
	for _, b := range bufs[1:] {
		for i := range out {
			out[i] = compressLinear(out[i]+at(b, i), threshold, coeff)
		}
	}
	return out, nil
}

// Log is Linear with a logarithmic compression of the excess. The curve's
// steepness comes from Alpha(threshold) so that a sum of 2 lands on 1.
func Log(threshold float64, bufs ...[]float64) ([]float64, error) {
	out, err := accumulate("mix.Log", threshold, bufs)
	if err != nil || len(bufs) < 2 {
		return out, err
	}

	alpha := Alpha(threshold)
	denom := math.Log(1 + alpha)
	for _, b := range bufs[1:] {
		for i := range out {
			out[i] = compressLog(out[i]+at(b, i), threshold, alpha, denom)
		}
	}
	return out, nil
}

// accumulate validates a soft-clip call and returns the first buffer padded
// to the common length.
func accumulate(op string, threshold float64, bufs [][]float64) ([]float64, error) {
	if !(threshold >= 0 && threshold < 1) {
		return nil, apperr.Errorf(apperr.Validation, op, "%w: %g", ErrThreshold, threshold)
	}
	if len(bufs) == 0 {
		return nil, apperr.New(apperr.Validation, op, ErrNoSignal)
	}
	out := make([]float64, longest(bufs))
	copy(out, bufs[0])
	return out, nil
}

func compressLinear(sum, threshold, coeff float64) float64 {
	abs := math.Abs(sum)
	if abs <= threshold {
		return sum
	}
	return math.Copysign(threshold+coeff*(abs-threshold), sum)
}

func compressLog(sum, threshold, alpha, denom float64) float64 {
	abs := math.Abs(sum)
	if abs <= threshold {
		return sum
	}
	return math.Copysign(threshold+(1-threshold)*math.Log(1+alpha*(abs-threshold)/(2-threshold))/denom, sum)
}

func longest(bufs [][]float64) int {
	n := 0
	for _, b := range bufs {
		n = max(n, len(b))
	}
	return n
}

// at reads b[i], treating positions past the end as the zero padding.
func at(b []float64, i int) float64 {
	if i < len(b) {
		return b[i]
	}
	return 0
}
