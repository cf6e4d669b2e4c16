// Package volume converts between linear gain, a perceptual 0..1 slider
// position and dBFS.
package volume

import "math"

// Epsilon is the quietest audible gain; anything below it is silence.
const Epsilon = 0.001

// DBFSCoef converts natural-log gain to decibels full scale.
var DBFSCoef = 20 / math.Ln10

// ToExponent maps a slider position in [0, 1] to a gain on an exponential
// scale. Positions that land below Epsilon mute.
func ToExponent(position float64) float64 {
	gain := math.Pow(Epsilon, 1-position)
	if gain > Epsilon {
		return gain
	}
	return 0
}

// FromExponent is the inverse of ToExponent. Gains below Epsilon map to 0.
func FromExponent(gain float64) float64 {
	return 1 - math.Log(math.Max(gain, Epsilon))/math.Log(Epsilon)
}

// ToDBFS converts a linear gain to dBFS. A gain of 0 yields -Inf.
func ToDBFS(gain float64) float64 {
	return math.Log(gain) * DBFSCoef
}

// FromDBFS converts dBFS to a linear gain.
func FromDBFS(dbfs float64) float64 {
	return math.Exp(dbfs / DBFSCoef)
}

// Average is the mean absolute sample value. An empty signal averages to 0.
func Average(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	var sum float64
	for _, v := range signal {
		sum += math.Abs(v)
	}
	return sum / float64(len(signal))
}

// Scale returns a copy of signal multiplied by gain.
func Scale(signal []float64, gain float64) []float64 {
	out := make([]float64, len(signal))
	for i, v := range signal {
		out[i] = v * gain
	}
	return out
}
