package wavfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/binaryphile/tonesynth/internal/apperr"
	"github.com/binaryphile/tonesynth/internal/config"
	"github.com/binaryphile/tonesynth/internal/pcm"
)

// Extension is the only file extension Save writes to.
const Extension = ".wav"

var (
	ErrExtension   = errors.New("target is not a .wav file")
	ErrIsDirectory = errors.New("target is a directory")
)

// Save writes header and payload to path in a single write.
// This is boundary code - performs file I/O.
//
// The path must end in .wav and must not be a directory. An existing file
// is removed first. A failed write may leave a truncated file behind.
func Save(path string, payload []byte, f Format) error {
	const op = "wavfile.Save"
	if err := f.Validate(); err != nil {
		return err
	}
	if err := prepareTarget(op, path); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return apperr.New(apperr.IO, op, err)
	}
	if _, err := file.Write(Encode(f, payload)); err != nil {
		file.Close()
		return apperr.New(apperr.IO, op, err)
	}
	if err := file.Close(); err != nil {
		return apperr.New(apperr.IO, op, err)
	}
	return nil
}

// prepareTarget checks the extension, refuses directories and deletes a
// previous file at path.
func prepareTarget(op, path string) error {
	if filepath.Ext(path) != Extension {
		return apperr.Errorf(apperr.IO, op, "%w: %s", ErrExtension, path)
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return apperr.New(apperr.IO, op, err)
	case info.IsDir():
		return apperr.Errorf(apperr.IO, op, "%w: %s", ErrIsDirectory, path)
	}
	if err := os.Remove(path); err != nil {
		return apperr.New(apperr.IO, op, err)
	}
	return nil
}

// SaveMono encodes one channel at the session bit depth and saves it.
func SaveMono(path string, samples []float64, audio config.Audio) error {
	payload, err := pcm.Mono(samples, audio.BitsPerSample)
	if err != nil {
		return err
	}
	return Save(path, payload, MonoFormat(audio))
}

// SaveStereo encodes two equal-length channels and saves them interleaved.
func SaveStereo(path string, left, right []float64, audio config.Audio) error {
	payload, err := pcm.Stereo(left, right, audio.BitsPerSample)
	if err != nil {
		return err
	}
	return Save(path, payload, StereoFormat(audio))
}
