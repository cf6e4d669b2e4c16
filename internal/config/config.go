// Package config holds the audio session settings threaded through the
// synthesis pipeline, and the message templates used to report failures.
// Settings are read once (defaults, then an optional JSON file, then CLI
// flags) and passed by value from there on.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/binaryphile/tonesynth/internal/apperr"
)

// Defaults match the settings the tone tools have always shipped with.
const (
	DefaultSampleRate    = 22050
	DefaultBitsPerSample = 16
	DefaultDurationMs    = 1000
)

// Audio is the immutable per-session audio configuration.
type Audio struct {
	SampleRate    int `json:"sampleRate"`
	BitsPerSample int `json:"bitsPerSample"`
	DurationMs    int `json:"sampleMsTime"` // default length for generators called without a duration
}

// Config is the on-disk configuration document.
type Config struct {
	Audio
	Messages map[string]string `json:"messages"`
}

// DefaultAudio returns the built-in audio settings.
func DefaultAudio() Audio {
	return Audio{
		SampleRate:    DefaultSampleRate,
		BitsPerSample: DefaultBitsPerSample,
		DurationMs:    DefaultDurationMs,
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{Audio: DefaultAudio()}
}

// Load reads a JSON configuration file. Keys absent from the file keep
// their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the audio settings. All problems are returned.
func (a Audio) Validate() []error {
	errs := a.validateFormat()
	if a.DurationMs <= 0 {
		errs = append(errs, fmt.Errorf("sampleMsTime must be positive, got %d", a.DurationMs))
	}
	return errs
}

func (a Audio) validateFormat() []error {
	var errs []error
	if a.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sampleRate must be positive, got %d", a.SampleRate))
	}
	switch a.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		errs = append(errs, fmt.Errorf("bitsPerSample must be 8, 16, 24 or 32, got %d", a.BitsPerSample))
	}
	return errs
}

// FormatErr checks only the sample rate and bit depth, for callers that
// supply their own durations.
func (a Audio) FormatErr() error {
	if errs := a.validateFormat(); len(errs) > 0 {
		return apperr.New(apperr.Validation, "config", errors.Join(errs...))
	}
	return nil
}

// Err folds the result of Validate into a single validation error.
func (a Audio) Err() error {
	errs := a.Validate()
	if len(errs) == 0 {
		return nil
	}
	return apperr.New(apperr.Validation, "config", errors.Join(errs...))
}

// messageKeys maps the JSON keys of the messages object to failure kinds.
var messageKeys = map[string]apperr.Kind{
	"validation":    apperr.Validation,
	"shapeMismatch": apperr.ShapeMismatch,
	"io":            apperr.IO,
	"playback":      apperr.Playback,
}

// DefaultTemplates returns the built-in message per failure kind.
func DefaultTemplates() map[apperr.Kind]string {
	return map[apperr.Kind]string{
		apperr.Unknown:       "unexpected failure",
		apperr.Validation:    "invalid synthesis parameters",
		apperr.ShapeMismatch: "signal lengths do not match",
		apperr.IO:            "could not save audio file",
		apperr.Playback:      "could not play audio",
	}
}

// Templates merges the configured messages over the defaults.
// Unknown keys are ignored.
func (c Config) Templates() map[apperr.Kind]string {
	templates := DefaultTemplates()
	for key, msg := range c.Messages {
		if kind, ok := messageKeys[key]; ok && msg != "" {
			templates[kind] = msg
		}
	}
	return templates
}
