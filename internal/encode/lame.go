package encode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/binaryphile/tonesynth/internal/apperr"
)

var ErrEmptyOutput = errors.New("output file is empty")

// EncodeOptions configures the lame encoder
type EncodeOptions struct {
	Quality int       // VBR quality (0-9, lower is better, default 2)
	Verbose io.Writer // receives lame's own output; nil keeps it quiet
}

// DefaultEncodeOptions returns sensible defaults for encoding synthesized
// tones.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Quality: 2, // -V 2 is high quality VBR (~190 kbps)
	}
}

// lameArgs builds the lame command line.
// This is a pure function: options + paths → argv.
func lameArgs(opts EncodeOptions, inputPath, outputPath string) []string {
	args := []string{fmt.Sprintf("-V%d", opts.Quality)}
	if opts.Verbose == nil {
		args = append(args, "--quiet")
	}
	return append(args, inputPath, outputPath)
}

// EncodeWAV encodes a WAV file to MP3 using lame.
// This is boundary code - calls external lame process.
//
// Partial output is removed on failure. Canceling ctx kills lame.
func EncodeWAV(ctx context.Context, inputPath, outputPath string, opts EncodeOptions) error {
	const op = "encode.EncodeWAV"

	if opts.Quality < 0 || opts.Quality > 9 {
		return apperr.Errorf(apperr.Validation, op, "quality %d outside 0-9", opts.Quality)
	}
	if _, err := os.Stat(inputPath); err != nil {
		return apperr.Errorf(apperr.IO, op, "input file: %w", err)
	}

	cmd := exec.CommandContext(ctx, "lame", lameArgs(opts, inputPath, outputPath)...)
	if opts.Verbose != nil {
		cmd.Stdout = opts.Verbose
		cmd.Stderr = opts.Verbose
	}

	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		return apperr.Errorf(apperr.IO, op, "lame encoding failed: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return apperr.Errorf(apperr.IO, op, "output file not created: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(outputPath)
		return apperr.New(apperr.IO, op, ErrEmptyOutput)
	}

	return nil
}

// LameAvailable checks if lame is installed and accessible
func LameAvailable() bool {
	_, err := exec.LookPath("lame")
	return err == nil
}
