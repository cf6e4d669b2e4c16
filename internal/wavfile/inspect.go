package wavfile

import (
	"errors"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/binaryphile/tonesynth/internal/apperr"
	"github.com/binaryphile/tonesynth/internal/pcm"
)

var ErrNotWAV = errors.New("not a valid wav file")

// Info describes a WAV file read back from disk.
type Info struct {
	Format
	Frames   int
	Duration time.Duration
	// Samples holds the decoded integers, channels interleaved. 8-bit data
	// stays unsigned as stored.
	Samples []int
}

// Normalized converts Samples back to [-1, 1] floats.
func (i Info) Normalized() []float64 {
	max := float64(pcm.MaxValue(i.BitsPerSample))
	out := make([]float64, len(i.Samples))
	for n, s := range i.Samples {
		if i.BitsPerSample == 8 {
			s -= 128
		}
		out[n] = float64(s) / max
	}
	return out
}

// Channel returns the normalized samples of one channel.
func (i Info) Channel(ch int) []float64 {
	all := i.Normalized()
	if ch < 0 || ch >= i.Channels {
		return nil
	}
	out := make([]float64, 0, i.Frames)
	for n := ch; n < len(all); n += i.Channels {
		out = append(out, all[n])
	}
	return out
}

// Inspect decodes the WAV file at path.
// This is boundary code - performs file I/O.
func Inspect(path string) (Info, error) {
	const op = "wavfile.Inspect"

	f, err := os.Open(path)
	if err != nil {
		return Info{}, apperr.New(apperr.IO, op, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Info{}, apperr.Errorf(apperr.IO, op, "%w: %s", ErrNotWAV, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Info{}, apperr.New(apperr.IO, op, err)
	}

	return infoFrom(buf, int(dec.BitDepth)), nil
}

func infoFrom(buf *audio.IntBuffer, bits int) Info {
	format := Format{
		Channels:      buf.Format.NumChannels,
		SampleRate:    buf.Format.SampleRate,
		BitsPerSample: bits,
	}
	frames := buf.NumFrames()

	var duration time.Duration
	if format.SampleRate > 0 {
		duration = time.Duration(frames) * time.Second / time.Duration(format.SampleRate)
	}

	return Info{
		Format:   format,
		Frames:   frames,
		Duration: duration,
		Samples:  buf.Data,
	}
}
