// Package playback sends PCM to an audio output device from a single
// worker goroutine.
//
// Which device DefaultDevice opens is chosen at build time: oto by default,
// PortAudio with -tags portaudio, and a silent sink with -tags headless.
package playback

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"

	"github.com/binaryphile/tonesynth/internal/apperr"
	"github.com/binaryphile/tonesynth/internal/config"
	"github.com/binaryphile/tonesynth/internal/pcm"
	"github.com/binaryphile/tonesynth/internal/wavfile"
)

var (
	ErrClosed       = errors.New("player closed")
	ErrFormatLocked = errors.New("device already opened with another format")
)

// Device plays one PCM buffer to completion or until ctx is done.
type Device interface {
	Play(ctx context.Context, data []byte, f wavfile.Format) error
}

// Job is a submitted playback request.
type Job struct {
	ctx    context.Context
	data   []byte
	format wavfile.Format
	err    error
	done   chan struct{}
}

// Wait blocks until the job has played or ctx is done.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Player serializes playback onto one device.
type Player struct {
	dev  Device
	jobs chan *Job

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPlayer starts the worker goroutine for dev.
func NewPlayer(dev Device) *Player {
	p := &Player{dev: dev, jobs: make(chan *Job, 8)}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *Player) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		if err := job.ctx.Err(); err != nil {
			job.err = err
		} else if err := p.dev.Play(job.ctx, job.data, job.format); err != nil {
			job.err = wrap(err)
		}
		close(job.done)
	}
}

// wrap tags device failures as playback errors unless they already carry a
// kind or come from cancellation.
func wrap(err error) error {
	if apperr.KindOf(err) != apperr.Unknown || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperr.New(apperr.Playback, "playback", err)
}

// Submit queues data for playback. The job is skipped if ctx is done
// before the worker reaches it.
func (p *Player) Submit(ctx context.Context, data []byte, f wavfile.Format) (*Job, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	job := &Job{ctx: ctx, data: data, format: f, done: make(chan struct{})}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, apperr.New(apperr.Playback, "playback.Submit", ErrClosed)
	}
	select {
	case p.jobs <- job:
		return job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close waits for queued jobs to finish, then releases the device if it
// holds resources.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	if c, ok := p.dev.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Play submits data and waits for it to finish.
func (p *Player) Play(ctx context.Context, data []byte, f wavfile.Format) error {
	job, err := p.Submit(ctx, data, f)
	if err != nil {
		return err
	}
	return job.Wait(ctx)
}

// PlayMono encodes samples at the session bit depth and plays them.
func (p *Player) PlayMono(ctx context.Context, samples []float64, audio config.Audio) error {
	data, err := pcm.Mono(samples, audio.BitsPerSample)
	if err != nil {
		return err
	}
	return p.Play(ctx, data, wavfile.MonoFormat(audio))
}

// PlayStereo encodes two channels and plays them.
func (p *Player) PlayStereo(ctx context.Context, left, right []float64, audio config.Audio) error {
	data, err := pcm.Stereo(left, right, audio.BitsPerSample)
	if err != nil {
		return err
	}
	return p.Play(ctx, data, wavfile.StereoFormat(audio))
}

// PlayWAV plays the payload of an encoded WAV file.
func (p *Player) PlayWAV(ctx context.Context, wav []byte) error {
	info, err := wavfile.ParseHeader(wav)
	if err != nil {
		return apperr.New(apperr.Playback, "playback.PlayWAV", err)
	}
	end := min(wavfile.HeaderSize+int(info.DataSize), len(wav))
	return p.Play(ctx, wav[wavfile.HeaderSize:end], info.Format)
}

// Float32 decodes little-endian PCM into float32 samples in [-1, 1].
// Devices that only take float input use it.
func Float32(data []byte, bits int) []float32 {
	width := bits / 8
	if width == 0 {
		return nil
	}
	scale := float32(1 / float64(pcm.MaxValue(bits)))
	out := make([]float32, len(data)/width)
	for i := range out {
		b := data[i*width : (i+1)*width]
		var n int32
		switch bits {
		case 8:
			n = int32(b[0]) - 128
		case 16:
			n = int32(int16(binary.LittleEndian.Uint16(b)))
		case 24:
			n = int32(uint32(b[0])|uint32(b[1])<<8|uint32(b[2])<<16) << 8 >> 8
		case 32:
			n = int32(binary.LittleEndian.Uint32(b))
		}
		out[i] = float32(n) * scale
	}
	return out
}

// float32LE serializes samples for byte-oriented float devices.
func float32LE(samples []float32) []byte {
	out := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(s))
	}
	return out
}
