package encode

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// GenerateFilename creates a filename for one rendered tone or chord.
// This is a pure function: (title, index, notes, ext) → filename
//
// Format: Title-NN-C4_E4_G4.ext
// Index 0 leaves out the number; no notes leaves out the note list.
// Sharps are spelled with an s (C#4 → Cs4).
//
// Character handling:
// - Non-ASCII → normalized to ASCII equivalents (ō→o, é→e)
// - Spaces → underscores
// - / and \ → underscores (filesystem-illegal)
// - Shell metacharacters ($ ! * ? & ; | < > # etc.) → underscores
// - Quotes (' " `) → removed
// - Multiple consecutive underscores → collapsed to single underscore
// - Leading/trailing underscores → trimmed
func GenerateFilename(title string, index int, notes []string, ext string) string {
	parts := []string{sanitize(title)}

	if index > 0 {
		parts = append(parts, fmt.Sprintf("%02d", index))
	}

	tokens := make([]string, 0, len(notes))
	for _, n := range notes {
		if t := sanitize(strings.ReplaceAll(n, "#", "s")); t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) > 0 {
		parts = append(parts, strings.Join(tokens, "_"))
	}

	return strings.Join(parts, "-") + normalizeExt(ext)
}

// GenerateScoreFilename creates a filename for a whole rendered score.
// This is a pure function.
//
// Format: Artist-Title.ext, or Title.ext without an artist.
func GenerateScoreFilename(artist, title, ext string) string {
	var parts []string
	if a := sanitize(artist); a != "" {
		parts = append(parts, a)
	}
	parts = append(parts, sanitize(title))

	return strings.Join(parts, "-") + normalizeExt(ext)
}

func normalizeExt(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

// sanitize prepares a string for use in a filename.
// Replaces characters that are illegal or require shell quoting.
// Normalizes non-ASCII characters to ASCII equivalents (ō→o, é→e, etc.).
// Collapses multiple consecutive underscores to a single underscore.
func sanitize(s string) string {
	s = normalizeToASCII(s)

	var b strings.Builder
	b.Grow(len(s))

	lastWasUnderscore := false
	for _, r := range s {
		switch r {
		// Remove quotes (require shell escaping)
		case '\'', '"', '`':

		// Replace with underscore
		case ' ', '\t':
			fallthrough
		case '/', '\\': // filesystem-illegal
			fallthrough
		case '$', '!', '#', '~': // expansion and comments
			fallthrough
		case '*', '?', '[', ']': // glob patterns
			fallthrough
		case '(', ')', '{', '}': // subshell, brace expansion
			fallthrough
		case '<', '>', '|', '&', ';': // redirection, pipe, separators
			if !lastWasUnderscore {
				b.WriteByte('_')
				lastWasUnderscore = true
			}

		default:
			b.WriteRune(r)
			lastWasUnderscore = r == '_'
		}
	}

	return strings.Trim(b.String(), "_")
}

// normalizeToASCII converts non-ASCII characters to their ASCII equivalents.
// Uses NFKD normalization to decompose characters (ō→o, é→e, etc.)
// and strips any remaining non-ASCII characters.
func normalizeToASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	result, _, _ := transform.String(t, s)

	var b strings.Builder
	for _, r := range result {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
