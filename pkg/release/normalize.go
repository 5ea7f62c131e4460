package release

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// romanRe matches II-IX after a space. A bare "I" or "X" and a numeral at
// the start of the title ("VII Days") are left alone.
var romanRe = regexp.MustCompile(`(?i) (ii|iii|iv|v|vi|vii|viii|ix)\b`)

var romanDigits = map[string]string{
	"ii": "2", "iii": "3", "iv": "4", "v": "5",
	"vi": "6", "vii": "7", "viii": "8", "ix": "9",
}

var punctuation = strings.NewReplacer("&", " and ", "-", " ", "'", "", ".", " ")

// NormalizeRomanNumerals rewrites sequel numerals II-IX as digits.
func NormalizeRomanNumerals(s string) string {
	return romanRe.ReplaceAllStringFunc(s, func(match string) string {
		if d, ok := romanDigits[strings.ToLower(match[1:])]; ok {
			return " " + d
		}
		return match
	})
}

// CleanTitle folds a title into a comparison key: lower case, no accents, no
// punctuation, no leading article in the title or subtitle.
func CleanTitle(title string) string {
	s := NormalizeRomanNumerals(strings.ToLower(title))
	s = punctuation.Replace(removeAccents(s))

	parts := strings.Split(s, ":")
	for i, part := range parts {
		parts[i] = stripArticle(strings.TrimSpace(part))
	}

	var b strings.Builder
	for _, r := range strings.Join(parts, " ") {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

func stripArticle(s string) string {
	for _, art := range []string{"the ", "a ", "an "} {
		if rest, ok := strings.CutPrefix(s, art); ok {
			return rest
		}
	}
	return s
}

// NormalizeSearchQuery tidies a query for torrent index search. Case and
// punctuation are kept; "&" becomes "and".
func NormalizeSearchQuery(query string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(query, "&", "and")), " ")
}

// SearchQuery builds the index query for a title: "Title 2010" for movies,
// "Title S01E02" when season and episode are known.
func SearchQuery(title string, year, season, episode int) string {
	switch {
	case season > 0 && episode > 0:
		return NormalizeSearchQuery(fmt.Sprintf("%s S%02dE%02d", title, season, episode))
	case year > 0:
		return NormalizeSearchQuery(fmt.Sprintf("%s %d", title, year))
	default:
		return NormalizeSearchQuery(title)
	}
}
