package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/binaryphile/tonesynth/internal/apperr"
	"github.com/binaryphile/tonesynth/internal/config"
	"github.com/binaryphile/tonesynth/internal/encode"
	"github.com/binaryphile/tonesynth/internal/envelope"
	"github.com/binaryphile/tonesynth/internal/playback"
	"github.com/binaryphile/tonesynth/internal/report"
	"github.com/binaryphile/tonesynth/internal/score"
	"github.com/binaryphile/tonesynth/internal/script"
	"github.com/binaryphile/tonesynth/internal/synth"
	"github.com/binaryphile/tonesynth/internal/volume"
	"github.com/binaryphile/tonesynth/internal/wavfile"
)

// options collects the parsed command line.
type options struct {
	output     string
	dest       string
	title      string
	notes      []string
	wave       string
	durationMs int
	amplitude  float64
	mix        string
	threshold  float64
	env        envelope.ADSR
	stereo     bool
	split      bool
	manifest   string
	seed       uint64
	play       bool
	dryRun     bool
}

func main() {
	configPath := flag.String("config", "", "JSON config file (sampleRate, bitsPerSample, sampleMsTime, messages)")
	rate := flag.Int("rate", 0, "Sample rate override")
	bits := flag.Int("bits", 0, "Bits per sample override (8, 16, 24, 32)")

	scorePath := flag.String("score", "", "Render a JSON score")
	scriptPath := flag.String("script", "", "Run a Lua script")
	inspectPath := flag.String("inspect", "", "Print the format of a WAV file and exit")

	var opts options
	flag.StringVar(&opts.output, "o", "", "Output WAV file (default: generated name in -dest)")
	flag.StringVar(&opts.dest, "dest", ".", "Destination directory for generated names")
	flag.StringVar(&opts.title, "title", "Tone", "Title used for generated file names")
	notes := flag.String("notes", "A4", "Comma-separated notes, e.g. C4,E4,G4")
	flag.StringVar(&opts.wave, "wave", "sine", "Waveform: sine, saw, triangle, rectangle, noise")
	flag.IntVar(&opts.durationMs, "dur", 0, "Duration in ms (default: config sampleMsTime)")
	flag.Float64Var(&opts.amplitude, "amp", 1, "Amplitude (0-1)")
	flag.StringVar(&opts.mix, "mix", score.MixNormalize, "Chord mix: normalize, linear, log, arpeggio")
	flag.Float64Var(&opts.threshold, "threshold", score.DefaultThreshold, "Soft-clip threshold for linear and log mixes")
	flag.Float64Var(&opts.env.AttackMs, "attack", 0, "Envelope attack in ms")
	flag.Float64Var(&opts.env.DecayEndMs, "decay", 0, "Envelope decay end in ms (0 = no envelope)")
	flag.Float64Var(&opts.env.DecayEndLevel, "level", 0.2, "Envelope level at decay end")
	flag.BoolVar(&opts.stereo, "stereo", false, "Write the signal to two channels")
	flag.BoolVar(&opts.split, "split", false, "Write one WAV per score chord")
	flag.StringVar(&opts.manifest, "manifest", "", "Write the score manifest JSON here")
	flag.Uint64Var(&opts.seed, "seed", 0, "Phase seed (0 = random)")
	flag.BoolVar(&opts.play, "play", false, "Play the result ("+playback.Backend+")")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Show what would be done")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Synthesize tones, chords, scores and Lua scripts to WAV.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			report.New(os.Stderr, config.DefaultTemplates()).Error(apperr.New(loadKind(err), "tonegen", err))
			os.Exit(1)
		}
		cfg = loaded
	}
	if *rate != 0 {
		cfg.SampleRate = *rate
	}
	if *bits != 0 {
		cfg.BitsPerSample = *bits
	}

	reporter := report.New(os.Stderr, cfg.Templates())
	if err := cfg.Audio.Err(); err != nil {
		reporter.Error(err)
		os.Exit(1)
	}
	opts.notes = splitNotes(*notes)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch {
	case *inspectPath != "":
		err = inspect(*inspectPath)
	case *scorePath != "":
		err = renderScore(ctx, *scorePath, cfg.Audio, opts)
	case *scriptPath != "":
		err = runScript(ctx, *scriptPath, cfg.Audio, opts)
	default:
		err = renderTone(ctx, cfg.Audio, opts)
	}
	if err != nil {
		reporter.Error(err)
		os.Exit(1)
	}
}

func splitNotes(s string) []string {
	var notes []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			notes = append(notes, n)
		}
	}
	return notes
}

func newGenerator(audio config.Audio, seed uint64) *synth.Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return synth.NewSeeded(audio, seed)
}

// renderTone builds a one-chord score from the flags and renders it.
func renderTone(ctx context.Context, audio config.Audio, opts options) error {
	chord := score.Chord{
		Notes:      opts.notes,
		Wave:       opts.wave,
		DurationMs: opts.durationMs,
		Amplitude:  opts.amplitude,
		Mix:        opts.mix,
		Threshold:  &opts.threshold,
	}
	if opts.env.DecayEndMs > 0 {
		env := opts.env
		chord.Envelope = &env
	}
	s := &score.Score{Title: opts.title, Chords: []score.Chord{chord}}
	if opts.stereo {
		s.Channels = 2
	}

	if errs := s.Validate(); len(errs) > 0 {
		return apperr.New(apperr.Validation, "tonegen", errors.Join(errs...))
	}

	output := opts.output
	if output == "" {
		output = filepath.Join(opts.dest, encode.GenerateFilename(opts.title, 0, opts.notes, wavfile.Extension))
	}

	fmt.Printf("tonegen - %s %s, %d Hz, %d bit\n", strings.Join(opts.notes, " "), opts.wave,
		audio.SampleRate, audio.BitsPerSample)

	if opts.dryRun {
		fmt.Printf("[DRY RUN] Would write: %s\n", output)
		return nil
	}

	res, err := s.Render(ctx, newGenerator(audio, opts.seed), nil)
	if err != nil {
		return err
	}
	if err := save(output, res.Signal, audio, opts.stereo); err != nil {
		return err
	}
	printSaved(output, res.Signal, audio)

	return maybePlay(ctx, opts.play, res.Signal, audio)
}

// renderScore renders a score file to one WAV, or one per chord with -split.
func renderScore(ctx context.Context, path string, fallback config.Audio, opts options) error {
	s, err := score.ParseJSON(path)
	if err != nil {
		return apperr.New(loadKind(err), "tonegen", err)
	}
	if opts.stereo {
		s.Channels = 2
	}
	if errs := s.Validate(); len(errs) > 0 {
		fmt.Fprintln(os.Stderr, "Validation failed:")
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  - %v\n", e)
		}
		return apperr.New(apperr.Validation, "tonegen", errors.Join(errs...))
	}
	audio := s.AudioOr(fallback)
	stereo := s.Channels == 2

	fmt.Printf("tonegen - %s (%d chords, %d Hz, %d bit)\n", s.Title, len(s.Chords),
		audio.SampleRate, audio.BitsPerSample)
	fmt.Println(strings.Repeat("=", 60))

	output := opts.output
	if output == "" {
		output = filepath.Join(opts.dest, encode.GenerateScoreFilename(s.Artist, s.Title, wavfile.Extension))
	}

	if opts.dryRun {
		fmt.Println("[DRY RUN] Would write:")
		if !opts.split {
			fmt.Printf("  %s\n", output)
			return nil
		}
		for i, c := range s.Chords {
			fmt.Printf("  %s\n", filepath.Join(opts.dest, encode.GenerateFilename(s.Title, i+1, c.Notes, wavfile.Extension)))
		}
		return nil
	}

	res, err := s.Render(ctx, newGenerator(audio, opts.seed), progress())
	if err != nil {
		return err
	}

	if opts.split {
		if err := os.MkdirAll(opts.dest, 0755); err != nil {
			return apperr.New(apperr.IO, "tonegen", err)
		}
		for i, c := range res.Manifest.Chords {
			name := filepath.Join(opts.dest, encode.GenerateFilename(s.Title, c.Index, c.Notes, wavfile.Extension))
			if err := save(name, res.ChordSignal(i), audio, stereo); err != nil {
				return err
			}
			printSaved(name, res.ChordSignal(i), audio)
		}
	} else {
		if err := save(output, res.Signal, audio, stereo); err != nil {
			return err
		}
		printSaved(output, res.Signal, audio)
	}

	if opts.manifest != "" {
		data, err := res.Manifest.JSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.manifest, data, 0644); err != nil {
			return apperr.New(apperr.IO, "tonegen", err)
		}
		fmt.Printf("Manifest: %s\n", opts.manifest)
	}
	fmt.Printf("Fingerprint: %s\n", res.Manifest.Fingerprint)

	return maybePlay(ctx, opts.play, res.Signal, audio)
}

// runScript executes a Lua script. A signal returned by the script is
// saved to -o when given, and played with -play.
func runScript(ctx context.Context, path string, audio config.Audio, opts options) error {
	if opts.dryRun {
		fmt.Printf("[DRY RUN] Would run: %s\n", path)
		return nil
	}

	var engineOpts []script.Option
	var player *playback.Player
	if opts.play {
		dev, err := playback.DefaultDevice()
		if err != nil {
			return apperr.New(apperr.Playback, "tonegen", err)
		}
		player = playback.NewPlayer(dev)
		defer player.Close()
		engineOpts = append(engineOpts, script.WithPlayer(player))
	}

	engine := script.New(newGenerator(audio, opts.seed), engineOpts...)
	defer engine.Close()

	samples, err := engine.RunFile(ctx, path)
	if err != nil {
		return err
	}
	for _, saved := range engine.Saved() {
		fmt.Printf("Saved: %s\n", saved)
	}
	if samples == nil {
		return nil
	}
	if opts.output != "" {
		if err := save(opts.output, samples, audio, opts.stereo); err != nil {
			return err
		}
		printSaved(opts.output, samples, audio)
	}
	if player != nil {
		return player.PlayMono(ctx, samples, audio)
	}
	return nil
}

// loadKind classifies a load failure: file system errors are IO, anything
// else is a malformed document.
func loadKind(err error) apperr.Kind {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return apperr.IO
	}
	return apperr.Validation
}

func inspect(path string) error {
	info, err := wavfile.Inspect(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", path)
	fmt.Printf("  Channels: %d\n", info.Channels)
	fmt.Printf("  Sample rate: %d Hz\n", info.SampleRate)
	fmt.Printf("  Bits per sample: %d\n", info.BitsPerSample)
	fmt.Printf("  Frames: %d (%.2fs)\n", info.Frames, info.Duration.Seconds())
	fmt.Printf("  Level: %.1f dBFS\n", volume.ToDBFS(volume.Average(info.Normalized())))
	return nil
}

func save(path string, samples []float64, audio config.Audio, stereo bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperr.New(apperr.IO, "tonegen", err)
		}
	}
	if stereo {
		return wavfile.SaveStereo(path, samples, samples, audio)
	}
	return wavfile.SaveMono(path, samples, audio)
}

func printSaved(path string, samples []float64, audio config.Audio) {
	seconds := float64(len(samples)) / float64(audio.SampleRate)
	fmt.Printf("Saved: %s (%d samples, %.2fs)\n", path, len(samples), seconds)
}

// progress prints a percentage line while rendering, only on a terminal.
func progress() score.ProgressFunc {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}
	return func(done, total int) {
		fmt.Printf("\r  %3d%% | %d/%d chords   ", done*100/total, done, total)
		if done == total {
			fmt.Println()
		}
	}
}

func maybePlay(ctx context.Context, play bool, samples []float64, audio config.Audio) error {
	if !play {
		return nil
	}
	dev, err := playback.DefaultDevice()
	if err != nil {
		return apperr.New(apperr.Playback, "tonegen", err)
	}
	player := playback.NewPlayer(dev)
	defer player.Close()

	fmt.Printf("Playing (%s)...\n", playback.Backend)
	return player.PlayMono(ctx, samples, audio)
}
