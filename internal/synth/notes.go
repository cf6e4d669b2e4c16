package synth

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// NoteCount is the size of the note table: nine octaves of twelve semitones.
const NoteCount = 9 * 12

// a4Index is the table position of A4 (440 Hz).
const a4Index = 57

// Spellings per semitone. H and Hb are the German names for B and A#.
var semitoneNames = [12][]string{
	{"C"}, {"C#", "Db"}, {"D"}, {"D#", "Eb"}, {"E"}, {"F"},
	{"F#", "Gb"}, {"G"}, {"G#", "Ab"}, {"A"}, {"A#", "Hb"}, {"H", "B"},
}

var (
	frequencies = buildFrequencies()
	notes       = buildNotes()
)

func buildFrequencies() [NoteCount]float64 {
	var f [NoteCount]float64
	for i := range f {
		f[i] = 440.0 * math.Pow(2, float64(i-a4Index)/12.0)
	}
	return f
}

func buildNotes() map[string]float64 {
	m := make(map[string]float64, NoteCount*3/2)
	for octave := 0; octave < NoteCount/12; octave++ {
		for semitone, names := range semitoneNames {
			for _, name := range names {
				m[fmt.Sprintf("%s%d", name, octave)] = frequencies[octave*12+semitone]
			}
		}
	}
	return m
}

// Frequency returns the equal-tempered frequency of a note name such as
// "C4", "F#3" or "Eb5".
func Frequency(name string) (float64, bool) {
	f, ok := notes[strings.TrimSpace(name)]
	return f, ok
}

// MustFrequency is Frequency for names known at compile time.
func MustFrequency(name string) float64 {
	f, ok := Frequency(name)
	if !ok {
		panic("synth: unknown note " + name)
	}
	return f
}

// NoteAt returns the frequency at a table index, 0 (C0) to NoteCount-1 (B8).
func NoteAt(index int) (float64, error) {
	if index < 0 || index >= NoteCount {
		return 0, fmt.Errorf("note index %d outside [0,%d)", index, NoteCount)
	}
	return frequencies[index], nil
}

// Notes lists every accepted note name in table order, enharmonic
// spellings adjacent.
func Notes() []string {
	names := make([]string, 0, len(notes))
	for name := range notes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		fi, fj := notes[names[i]], notes[names[j]]
		if fi != fj {
			return fi < fj
		}
		return names[i] < names[j]
	})
	return names
}
