package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/binaryphile/tonesynth/internal/config"
	"github.com/binaryphile/tonesynth/internal/encode"
	"github.com/binaryphile/tonesynth/internal/report"
	"github.com/binaryphile/tonesynth/internal/score"
	"github.com/binaryphile/tonesynth/internal/wavfile"
)

func main() {
	// Parse flags
	quality := flag.Int("q", 2, "LAME VBR quality (0-9, lower is better)")
	flag.IntVar(quality, "quality", 2, "LAME VBR quality")

	manifestPath := flag.String("manifest", "", "Score manifest written by tonegen -manifest")

	artist := flag.String("artist", "", "Artist tag (default: manifest artist)")
	album := flag.String("album", "", "Album tag (default: manifest title)")
	year := flag.Int("year", 0, "Year tag")
	genre := flag.String("genre", encode.DefaultGenre, "Genre tag")

	dest := flag.String("dest", "", "Destination directory (default: input-dir)")

	strict := flag.Bool("strict", false, "Fail when a WAV does not match its manifest fingerprint")

	dryRun := flag.Bool("dry-run", false, "Show what would be done")

	verbose := flag.Bool("v", false, "Verbose output")
	flag.BoolVar(verbose, "verbose", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <input-dir>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Encode rendered WAV files to tagged MP3.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	inputDir := flag.Arg(0)
	reporter := report.New(os.Stderr, config.DefaultTemplates())

	// Validate input directory
	if _, err := os.Stat(inputDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: input directory not found: %s\n", inputDir)
		os.Exit(1)
	}

	wavFiles, err := findWAVFiles(inputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding WAV files: %v\n", err)
		os.Exit(1)
	}
	if len(wavFiles) == 0 {
		fmt.Fprintln(os.Stderr, "No WAV files found in input directory")
		os.Exit(1)
	}

	fmt.Printf("wav2mp3 - lame encoding + ID3 tagging\n")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Input: %s (%d WAV files)\n", inputDir, len(wavFiles))

	var manifest *score.Manifest
	if *manifestPath != "" {
		manifest, err = score.ParseManifest(*manifestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Manifest: %s (%d chords)\n", manifest.Title, len(manifest.Chords))

		if problems := verify(wavFiles, manifest); len(problems) > 0 {
			if *strict {
				fmt.Fprintln(os.Stderr, "Validation failed:")
			}
			for _, p := range problems {
				fmt.Fprintf(os.Stderr, "  Warning: %s\n", p)
			}
			if *strict {
				os.Exit(1)
			}
		}
	}

	if !*dryRun && !encode.LameAvailable() {
		fmt.Fprintln(os.Stderr, "Error: lame not found. Install with: nix-shell -p lame")
		os.Exit(1)
	}

	albumTitle := *album
	albumArtist := *artist
	if manifest != nil {
		if albumTitle == "" {
			albumTitle = manifest.Title
		}
		if albumArtist == "" {
			albumArtist = manifest.Artist
		}
	}

	destDir := *dest
	if destDir == "" {
		destDir = inputDir
	}

	fmt.Printf("\nDestination: %s\n", destDir)
	fmt.Printf("Quality: V%d\n", *quality)

	if *dryRun {
		fmt.Println("\n[DRY RUN] Would encode:")
	} else {
		fmt.Println("\nEncoding:")
	}

	opts := encode.EncodeOptions{Quality: *quality}
	if *verbose {
		opts.Verbose = os.Stderr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	encoded := 0
	for i, wavFile := range wavFiles {
		meta := encode.TrackMeta{
			Artist:     albumArtist,
			Album:      albumTitle,
			TrackNum:   i + 1,
			TrackTotal: len(wavFiles),
			Year:       *year,
			Genre:      *genre,
		}
		if manifest != nil && i < len(manifest.Chords) {
			chord := manifest.Chords[i]
			meta.TrackNum = chord.Index
			meta.TrackTotal = len(manifest.Chords)
			meta.Notes = chord.Notes
			meta.Wave = chord.Wave
		} else {
			meta.Title = strings.TrimSuffix(filepath.Base(wavFile), filepath.Ext(wavFile))
		}

		filename := mp3Name(albumTitle, meta)
		mp3Path := filepath.Join(destDir, filename)

		if *dryRun {
			fmt.Printf("  %s -> %s\n", filepath.Base(wavFile), filename)
			continue
		}

		fmt.Printf("  %02d. %s... ", meta.TrackNum, encode.BuildTags(meta).Title)

		if err := os.MkdirAll(destDir, 0755); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			continue
		}

		fingerprint, err := wavfile.FingerprintFile(wavFile)
		if err != nil {
			fmt.Println("ERROR")
			reporter.Error(err)
			continue
		}
		meta.Fingerprint = fingerprint

		if err := encode.EncodeWAV(ctx, wavFile, mp3Path, opts); err != nil {
			fmt.Println("ENCODE ERROR")
			reporter.Error(err)
			if ctx.Err() != nil {
				os.Exit(1)
			}
			continue
		}

		if err := encode.BuildTags(meta).Apply(mp3Path); err != nil {
			fmt.Printf("TAG ERROR: %v\n", err)
			os.Remove(mp3Path)
			continue
		}

		encoded++
		fmt.Println("OK")
	}

	if !*dryRun {
		fmt.Printf("\n%s\n", strings.Repeat("=", 60))
		fmt.Printf("Done! Encoded %d of %d files to %s\n", encoded, len(wavFiles), destDir)
		if encoded < len(wavFiles) {
			os.Exit(1)
		}
	}
}

// mp3Name names the output file. Manifest chords are named like tonegen
// -split output; anything else keeps its WAV base name.
func mp3Name(album string, meta encode.TrackMeta) string {
	if len(meta.Notes) > 0 {
		return encode.GenerateFilename(album, meta.TrackNum, meta.Notes, ".mp3")
	}
	return encode.GenerateFilename(meta.Title, 0, nil, ".mp3")
}

// verify compares each WAV against its manifest chord. It returns one
// message per mismatch.
func verify(wavFiles []string, m *score.Manifest) []string {
	var problems []string
	if len(m.Chords) != len(wavFiles) {
		problems = append(problems, fmt.Sprintf("chord count mismatch (%d WAV files, %d chords in manifest)",
			len(wavFiles), len(m.Chords)))
	}
	for i, wavFile := range wavFiles {
		if i >= len(m.Chords) {
			break
		}
		got, err := wavfile.FingerprintFile(wavFile)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", filepath.Base(wavFile), err))
			continue
		}
		if want := m.Chords[i].Fingerprint; got != want {
			problems = append(problems, fmt.Sprintf("%s: fingerprint %s, manifest chord %d has %s",
				filepath.Base(wavFile), got, m.Chords[i].Index, want))
		}
	}
	return problems
}

func findWAVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var wavFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), wavfile.Extension) {
			wavFiles = append(wavFiles, filepath.Join(dir, entry.Name()))
		}
	}

	// Digit runs compare by value so Title-100 follows Title-99.
	sort.Slice(wavFiles, func(i, j int) bool {
		return naturalLess(filepath.Base(wavFiles[i]), filepath.Base(wavFiles[j]))
	})
	return wavFiles, nil
}

// naturalLess orders names with runs of digits compared numerically.
// This is a pure function: (a, b) → a sorts before b.
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := digitRun(a), digitRun(b)
		if da > 0 && db > 0 {
			na := strings.TrimLeft(a[:da], "0")
			nb := strings.TrimLeft(b[:db], "0")
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			if da != db {
				return da < db
			}
			a, b = a[da:], b[db:]
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

// digitRun returns the length of the leading run of ASCII digits in s.
func digitRun(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}
