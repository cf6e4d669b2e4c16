// Package wavfile writes and reads canonical 44-byte-header RIFF/WAVE files.
package wavfile

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/binaryphile/tonesynth/internal/apperr"
	"github.com/binaryphile/tonesynth/internal/config"
	"github.com/binaryphile/tonesynth/internal/pcm"
)

// HeaderSize is the length of the canonical PCM header.
const HeaderSize = 44

var (
	ErrFormat = errors.New("unsupported wav format")
	ErrHeader = errors.New("malformed wav header")
)

// Format describes the PCM payload.
type Format struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// MonoFormat returns the single-channel format for a session configuration.
func MonoFormat(audio config.Audio) Format {
	return Format{Channels: 1, SampleRate: audio.SampleRate, BitsPerSample: audio.BitsPerSample}
}

// StereoFormat returns the two-channel format for a session configuration.
func StereoFormat(audio config.Audio) Format {
	return Format{Channels: 2, SampleRate: audio.SampleRate, BitsPerSample: audio.BitsPerSample}
}

// Validate accepts one or two channels, a positive rate and a PCM width.
func (f Format) Validate() error {
	if (f.Channels != 1 && f.Channels != 2) || f.SampleRate <= 0 || !pcm.ValidBits(f.BitsPerSample) {
		return apperr.Errorf(apperr.Validation, "wavfile", "%w: %d channels, %d Hz, %d bits",
			ErrFormat, f.Channels, f.SampleRate, f.BitsPerSample)
	}
	return nil
}

// ByteRate keeps the shift expression the header has always been written
// with: rate*bits >> (4-channels), i.e. rate*bits/8*channels for mono and
// stereo.
func (f Format) ByteRate() uint32 {
	return uint32(f.SampleRate*f.BitsPerSample) >> (4 - f.Channels)
}

// BlockAlign is bits >> (4-channels), the bytes per frame.
func (f Format) BlockAlign() uint16 {
	return uint16(f.BitsPerSample >> (4 - f.Channels))
}

// Header builds the 44-byte header for dataBytes of payload.
// This is a pure function: format + size → header bytes.
func Header(f Format, dataBytes int) []byte {
	header := make([]byte, HeaderSize)

	// RIFF header
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataBytes))
	copy(header[8:12], "WAVE")

	// fmt subchunk
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // Subchunk1Size (16 for PCM)
	binary.LittleEndian.PutUint16(header[20:22], 1)  // AudioFormat (1 = PCM)
	binary.LittleEndian.PutUint16(header[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], f.ByteRate())
	binary.LittleEndian.PutUint16(header[32:34], f.BlockAlign())
	binary.LittleEndian.PutUint16(header[34:36], uint16(f.BitsPerSample))

	// data subchunk
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataBytes))

	return header
}

// Encode returns a complete WAV file: header followed by payload.
func Encode(f Format, payload []byte) []byte {
	wav := make([]byte, HeaderSize+len(payload))
	copy(wav, Header(f, len(payload)))
	copy(wav[HeaderSize:], payload)
	return wav
}

// HeaderInfo is the decoded content of a canonical header.
type HeaderInfo struct {
	Format
	ChunkSize   uint32
	AudioFormat uint16
	ByteRate    uint32
	BlockAlign  uint16
	DataSize    uint32
}

// ParseHeader decodes the first 44 bytes of a canonical WAV file.
func ParseHeader(b []byte) (HeaderInfo, error) {
	if len(b) < HeaderSize {
		return HeaderInfo{}, fmt.Errorf("%w: %d bytes, need %d", ErrHeader, len(b), HeaderSize)
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" ||
		string(b[12:16]) != "fmt " || string(b[36:40]) != "data" {
		return HeaderInfo{}, fmt.Errorf("%w: missing chunk ids", ErrHeader)
	}
	return HeaderInfo{
		Format: Format{
			Channels:      int(binary.LittleEndian.Uint16(b[22:24])),
			SampleRate:    int(binary.LittleEndian.Uint32(b[24:28])),
			BitsPerSample: int(binary.LittleEndian.Uint16(b[34:36])),
		},
		ChunkSize:   binary.LittleEndian.Uint32(b[4:8]),
		AudioFormat: binary.LittleEndian.Uint16(b[20:22]),
		ByteRate:    binary.LittleEndian.Uint32(b[28:32]),
		BlockAlign:  binary.LittleEndian.Uint16(b[32:34]),
		DataSize:    binary.LittleEndian.Uint32(b[40:44]),
	}, nil
}
