package normalizer

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks, so "Ōtaki" becomes "Otaki".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// isMn reports whether r is a nonspacing mark
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// FoldASCII produces the ASCII-folded variant of a register field. Macrons are
// stripped first; any rune still outside ASCII is transliterated.
func FoldASCII(s string) string {
	out := StripDiacritics(s)
	for _, r := range out {
		if r > unicode.MaxASCII {
			return unidecode.Unidecode(out)
		}
	}
	return out
}

// FoldAndNormalize is Normalize applied to the ASCII-folded input. Used to
// build search documents that compare against normalized queries.
func FoldAndNormalize(s string) string {
	return Normalize(FoldASCII(strings.TrimSpace(s)))
}
