// Package pcm converts normalized samples into little-endian integer PCM
// frames.
//
// Conversion is a cast, not a clamp: the scaled value is truncated toward
// zero, saturated to the int32 range and then wrapped to the target width.
// Inputs outside [-1, 1] therefore wrap around instead of clipping, which is
// what files written by earlier versions of the tools contain.
package pcm

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/binaryphile/tonesynth/internal/apperr"
)

var (
	ErrBitDepth        = errors.New("unsupported bit depth")
	ErrChannelMismatch = errors.New("channel lengths differ")
)

// ValidBits reports whether bits is a supported sample width.
func ValidBits(bits int) bool {
	return bits == 8 || bits == 16 || bits == 24 || bits == 32
}

// MaxValue is the largest sample value at the given width.
func MaxValue(bits int) int64 {
	return 1<<(bits-1) - 1
}

// Sample converts one normalized value to a signed integer of the given width.
func Sample(v float64, bits int) int32 {
	scaled := v * float64(MaxValue(bits))

	var n int32
	switch {
	case math.IsNaN(scaled):
		n = 0
	case scaled >= math.MaxInt32:
		n = math.MaxInt32
	case scaled <= math.MinInt32:
		n = math.MinInt32
	default:
		n = int32(scaled)
	}

	shift := 32 - bits
	return n << shift >> shift
}

// put stores one sample at b[0:bits/8]. 8-bit WAV data is unsigned, so
// it is written offset by 128.
func put(b []byte, n int32, bits int) {
	switch bits {
	case 8:
		b[0] = uint8(n + 128)
	case 16:
		binary.LittleEndian.PutUint16(b, uint16(n))
	case 24:
		b[0] = byte(n)
		b[1] = byte(n >> 8)
		b[2] = byte(n >> 16)
	case 32:
		binary.LittleEndian.PutUint32(b, uint32(n))
	}
}

func checkBits(op string, bits int) error {
	if !ValidBits(bits) {
		return apperr.Errorf(apperr.Validation, op, "%w: %d", ErrBitDepth, bits)
	}
	return nil
}

// Mono encodes a single channel.
func Mono(samples []float64, bits int) ([]byte, error) {
	if err := checkBits("pcm.Mono", bits); err != nil {
		return nil, err
	}
	width := bits / 8
	out := make([]byte, len(samples)*width)
	for i, v := range samples {
		put(out[i*width:], Sample(v, bits), bits)
	}
	return out, nil
}

// Stereo encodes two equal-length channels as interleaved left/right frames.
func Stereo(left, right []float64, bits int) ([]byte, error) {
	if len(left) != len(right) {
		return nil, apperr.Errorf(apperr.ShapeMismatch, "pcm.Stereo", "%w: left %d, right %d",
			ErrChannelMismatch, len(left), len(right))
	}
	if err := checkBits("pcm.Stereo", bits); err != nil {
		return nil, err
	}
	width := bits / 8
	out := make([]byte, len(left)*2*width)
	for i := range left {
		frame := out[i*2*width:]
		put(frame, Sample(left[i], bits), bits)
		put(frame[width:], Sample(right[i], bits), bits)
	}
	return out, nil
}
