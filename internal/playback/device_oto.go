//go:build !headless && !portaudio

package playback

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/binaryphile/tonesynth/internal/wavfile"
)

// Backend names the device DefaultDevice opens.
const Backend = "oto"

// otoDevice plays through oto. A process can hold only one oto context, so
// the first format played fixes the sample rate and channel count.
type otoDevice struct {
	mu     sync.Mutex
	ctx    *oto.Context
	format wavfile.Format
}

// DefaultDevice returns the oto output device. The device is opened on
// first use.
func DefaultDevice() (Device, error) {
	return &otoDevice{}, nil
}

func (d *otoDevice) open(f wavfile.Format) (*oto.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx != nil {
		if f.SampleRate != d.format.SampleRate || f.Channels != d.format.Channels {
			return nil, fmt.Errorf("%w: %d Hz x%d, want %d Hz x%d", ErrFormatLocked,
				f.SampleRate, f.Channels, d.format.SampleRate, d.format.Channels)
		}
		return d.ctx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   f.SampleRate,
		ChannelCount: f.Channels,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open oto: %w", err)
	}
	<-ready

	d.ctx = ctx
	d.format = f
	return ctx, nil
}

func (d *otoDevice) Play(ctx context.Context, data []byte, f wavfile.Format) error {
	octx, err := d.open(f)
	if err != nil {
		return err
	}

	player := octx.NewPlayer(bytes.NewReader(float32LE(Float32(data, f.BitsPerSample))))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	if err := player.Err(); err != nil {
		return fmt.Errorf("oto player: %w", err)
	}
	return nil
}
