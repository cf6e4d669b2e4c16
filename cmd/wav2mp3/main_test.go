package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/binaryphile/tonesynth/internal/config"
	"github.com/binaryphile/tonesynth/internal/score"
	"github.com/binaryphile/tonesynth/internal/wavfile"
)

// Integration tests for wav2mp3.
// These tests use --dry-run to avoid needing lame or actual encoding.

var testAudio = config.Audio{SampleRate: 8000, BitsPerSample: 16, DurationMs: 1000}

// writeWAVs saves one short mono WAV per name and returns their paths.
func writeWAVs(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	var paths []string
	for i, name := range names {
		path := filepath.Join(dir, name)
		signal := []float64{0, 0.25 * float64(i+1), -0.25}
		if err := wavfile.SaveMono(path, signal, testAudio); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	return paths
}

// writeManifest writes a manifest whose chords carry the fingerprints of
// paths, corrupting the one at index bad when bad >= 0.
func writeManifest(t *testing.T, dir string, paths []string, bad int) string {
	t.Helper()
	m := score.Manifest{Title: "Study", Artist: "Tone Lab", Audio: testAudio}
	notes := [][]string{{"C4", "E4"}, {"A#4"}}
	for i, p := range paths {
		fp, err := wavfile.FingerprintFile(p)
		if err != nil {
			t.Fatal(err)
		}
		if i == bad {
			fp = strings.Repeat("x", len(fp))
		}
		m.Chords = append(m.Chords, score.ChordEntry{
			Index: i + 1, Notes: notes[i], Wave: "sine", Mix: "normalize", Fingerprint: fp,
		})
	}
	data, err := m.JSON()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "manifest.json")
	os.WriteFile(path, data, 0644)
	return path
}

func TestDryRun_NoManifest(t *testing.T) {
	dir := t.TempDir()
	writeWAVs(t, dir, "drone.wav", "pad.wav")

	cmd := exec.Command("go", "run", ".", "--dry-run", dir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("wav2mp3 failed: %v\n%s", err, output)
	}

	out := string(output)
	for _, want := range []string{"drone.wav -> drone.mp3", "pad.wav -> pad.mp3"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestDryRun_Manifest(t *testing.T) {
	dir := t.TempDir()
	paths := writeWAVs(t, dir, "Study-01-C4_E4.wav", "Study-02-As4.wav")
	manifest := writeManifest(t, t.TempDir(), paths, -1)

	cmd := exec.Command("go", "run", ".", "--manifest", manifest, "--strict", "--dry-run", dir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("wav2mp3 failed: %v\n%s", err, output)
	}

	out := string(output)
	for _, want := range []string{"Study-01-C4_E4.mp3", "Study-02-As4.mp3", "Manifest: Study (2 chords)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Warning") {
		t.Errorf("unexpected warning:\n%s", out)
	}
}

func TestStrict_FingerprintMismatch(t *testing.T) {
	dir := t.TempDir()
	paths := writeWAVs(t, dir, "Study-01-C4_E4.wav", "Study-02-As4.wav")
	manifest := writeManifest(t, t.TempDir(), paths, 1)

	cmd := exec.Command("go", "run", ".", "--manifest", manifest, "--strict", "--dry-run", dir)
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure, got:\n%s", output)
	}

	out := string(output)
	if !strings.Contains(out, "Validation failed") {
		t.Errorf("expected 'Validation failed' in output:\n%s", out)
	}
	if !strings.Contains(out, "Study-02-As4.wav: fingerprint") {
		t.Errorf("expected mismatch for the second file:\n%s", out)
	}
}

func TestLenient_CountMismatchWarns(t *testing.T) {
	dir := t.TempDir()
	paths := writeWAVs(t, dir, "Study-01-C4_E4.wav")
	manifest := writeManifest(t, t.TempDir(), paths, -1)
	writeWAVs(t, dir, "extra.wav")

	cmd := exec.Command("go", "run", ".", "--manifest", manifest, "--dry-run", dir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("wav2mp3 failed: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "chord count mismatch") {
		t.Errorf("expected count warning in output:\n%s", output)
	}
}

func TestNoWAVFiles(t *testing.T) {
	cmd := exec.Command("go", "run", ".", "--dry-run", t.TempDir())
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure, got:\n%s", output)
	}
	if !strings.Contains(string(output), "No WAV files found") {
		t.Errorf("expected 'No WAV files found' in output:\n%s", output)
	}
}

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Study-11-A4.wav", "Study-100-C4.wav", true},
		{"Study-100-C4.wav", "Study-11-A4.wav", false},
		{"Study-09-A4.wav", "Study-10-A4.wav", true},
		{"Study-02-A4.wav", "Study-02-C4.wav", true},
		{"track2.wav", "track02.wav", true},
		{"a.wav", "a.wav", false},
		{"pad", "pad.wav", true},
	}
	for _, tt := range tests {
		if got := naturalLess(tt.a, tt.b); got != tt.want {
			t.Errorf("naturalLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFindWAVFiles_ChordOrderPast99(t *testing.T) {
	dir := t.TempDir()
	names := []string{"Study-100-C4.wav", "Study-11-A4.wav", "Study-99-E4.wav", "Study-101-G4.wav"}
	for _, n := range names {
		os.WriteFile(filepath.Join(dir, n), nil, 0644)
	}

	got, err := findWAVFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Study-11-A4.wav", "Study-99-E4.wav", "Study-100-C4.wav", "Study-101-G4.wav"}
	for i, w := range want {
		if filepath.Base(got[i]) != w {
			t.Errorf("file %d = %s, want %s", i, filepath.Base(got[i]), w)
		}
	}
}
