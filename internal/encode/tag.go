package encode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// DefaultGenre is written when a track names none.
const DefaultGenre = "Electronic"

// FingerprintDescription keys the TXXX frame holding the PCM fingerprint.
const FingerprintDescription = "TONESYNTH_FINGERPRINT"

// TrackMeta contains metadata for a rendered tone or chord to be tagged
type TrackMeta struct {
	Artist      string
	Album       string   // score title
	Title       string   // empty means derived from Notes and Wave
	Notes       []string // note names, e.g. C4 E4 G4
	Wave        string
	TrackNum    int
	TrackTotal  int
	Year        int
	Genre       string
	Fingerprint string
}

// TagSet contains the ID3 tags to be written
type TagSet struct {
	Artist      string
	Album       string
	Title       string
	TrackNum    int
	TrackTotal  int
	Year        int
	Genre       string
	Comment     string
	Fingerprint string
}

// ChordTitle names a chord by its notes and waveform, e.g. "C4 E4 G4 (sine)".
func ChordTitle(notes []string, wave string) string {
	title := strings.Join(notes, " ")
	if wave == "" {
		return title
	}
	if title == "" {
		return wave
	}
	return title + " (" + wave + ")"
}

// BuildTags creates a TagSet from track metadata.
// This is a pure function: TrackMeta → TagSet
// No I/O is performed - use Apply() to write tags to a file.
func BuildTags(meta TrackMeta) TagSet {
	title := meta.Title
	if title == "" {
		title = ChordTitle(meta.Notes, meta.Wave)
	}
	genre := meta.Genre
	if genre == "" {
		genre = DefaultGenre
	}

	var comment string
	if len(meta.Notes) > 0 {
		comment = "notes: " + strings.Join(meta.Notes, " ")
	}

	return TagSet{
		Artist:      meta.Artist,
		Album:       meta.Album,
		Title:       title,
		TrackNum:    meta.TrackNum,
		TrackTotal:  meta.TrackTotal,
		Year:        meta.Year,
		Genre:       genre,
		Comment:     comment,
		Fingerprint: meta.Fingerprint,
	}
}

// Apply writes the tags to an MP3 file.
// This is boundary code - performs file I/O.
func (t TagSet) Apply(filepath string) error {
	tag, err := id3v2.Open(filepath, id3v2.Options{Parse: false})
	if err != nil {
		return fmt.Errorf("open mp3: %w", err)
	}
	defer tag.Close()

	// Set ID3v2.4
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetVersion(4)

	tag.SetArtist(t.Artist)
	tag.SetAlbum(t.Album)
	tag.SetTitle(t.Title)
	tag.SetGenre(t.Genre)

	if t.Year > 0 {
		tag.SetYear(strconv.Itoa(t.Year))
	}

	// Track number (format: N/Total)
	if t.TrackTotal > 0 {
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8,
			fmt.Sprintf("%d/%d", t.TrackNum, t.TrackTotal))
	} else if t.TrackNum > 0 {
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8,
			strconv.Itoa(t.TrackNum))
	}

	if t.Comment != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "tonesynth",
			Text:        t.Comment,
		})
	}

	if t.Fingerprint != "" {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: FingerprintDescription,
			Value:       t.Fingerprint,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}

	return nil
}
