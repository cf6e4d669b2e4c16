package wavfile

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/binaryphile/tonesynth/internal/apperr"
)

// Fingerprint computes a content ID for a PCM payload.
// This is a pure function: format + payload → 28-char ID string.
//
// The format is hashed ahead of the samples so identical bytes at a
// different rate or width get a different ID. The base64 alphabet uses the
// URL-safe substitutions . _ - for + / =.
func Fingerprint(f Format, payload []byte) string {
	h := sha1.New()
	h.Write(Header(f, len(payload)))
	h.Write(payload)
	sum := h.Sum(nil)

	encoded := base64.StdEncoding.EncodeToString(sum)
	encoded = strings.ReplaceAll(encoded, "+", ".")
	encoded = strings.ReplaceAll(encoded, "/", "_")
	encoded = strings.ReplaceAll(encoded, "=", "-")

	return encoded
}

// FingerprintFile reads a WAV file and fingerprints its data chunk.
// This is boundary code - performs file I/O.
func FingerprintFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperr.New(apperr.IO, "wavfile.FingerprintFile", err)
	}
	info, err := ParseHeader(data)
	if err != nil {
		return "", apperr.New(apperr.Validation, "wavfile.FingerprintFile", fmt.Errorf("%s: %w", path, err))
	}

	end := HeaderSize + int(info.DataSize)
	if end > len(data) {
		return "", apperr.Errorf(apperr.Validation, "wavfile.FingerprintFile",
			"%s: %w: data chunk truncated", path, ErrHeader)
	}
	return Fingerprint(info.Format, data[HeaderSize:end]), nil
}
