// Package modelname derives file-system and URL safe model keys from
// free-form names ("Bumerang Chäir.blend" -> "BumerangChair").
package modelname

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrEmpty is returned when nothing usable is left of a name.
var ErrEmpty = errors.New("model name has no usable characters")

// StripMarks removes combining marks so accented letters fold to ASCII.
// Returns the input unchanged if the transform fails.
func StripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Sanitize turns name into a model key. Words separated by anything other than
// letters, digits, '_' or '-' are joined in CamelCase.
func Sanitize(name string) (string, error) {
	name = StripMarks(strings.TrimSpace(name))

	var b strings.Builder
	startWord := false
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if startWord {
				r = unicode.ToUpper(r)
				startWord = false
			}
			b.WriteRune(r)
		case r == '_' || r == '-':
			b.WriteRune(r)
			startWord = false
		default:
			startWord = b.Len() > 0
		}
	}

	if b.Len() == 0 {
		return "", ErrEmpty
	}
	return b.String(), nil
}

// FromPath derives a model key from a source file name, ignoring directories
// and the extension.
func FromPath(path string) (string, error) {
	base := filepath.Base(path)
	return Sanitize(strings.TrimSuffix(base, filepath.Ext(base)))
}
