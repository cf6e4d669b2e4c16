//go:build portaudio && !headless

package playback

import (
	"context"
	"fmt"

	pa "github.com/gordonklaus/portaudio"

	"github.com/binaryphile/tonesynth/internal/wavfile"
)

// Backend names the device DefaultDevice opens.
const Backend = "portaudio"

const framesPerBuffer = 1024

type portaudioDevice struct{}

// DefaultDevice initializes PortAudio and returns its default output. Close
// the Player (or the device) to terminate PortAudio.
func DefaultDevice() (Device, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	return portaudioDevice{}, nil
}

func (portaudioDevice) Close() error {
	return pa.Terminate()
}

// Play writes interleaved float32 frames through a blocking stream.
func (portaudioDevice) Play(ctx context.Context, data []byte, f wavfile.Format) error {
	samples := Float32(data, f.BitsPerSample)

	buf := make([]float32, framesPerBuffer*f.Channels)
	stream, err := pa.OpenDefaultStream(0, f.Channels, float64(f.SampleRate), framesPerBuffer, &buf)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	for len(samples) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(buf, samples)
		clear(buf[n:])
		samples = samples[n:]
		if err := stream.Write(); err != nil {
			return fmt.Errorf("write stream: %w", err)
		}
	}
	return nil
}
