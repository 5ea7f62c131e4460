// Package release normalizes titles and parses torrent release names.
package release

import (
	"regexp"
	"strconv"
	"strings"
)

// Info contains parsed information from a release name.
type Info struct {
	Title      string
	Year       int
	Season     int
	Episode    int
	Resolution string // 2160p, 1080p, 720p, 480p
}

var (
	yearRe       = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	episodeRe    = regexp.MustCompile(`(?i)\bS(\d{1,2})E(\d{1,3})\b`)
	resolutionRe = regexp.MustCompile(`(?i)\b(2160p|1080p|720p|480p|4k|uhd)\b`)
)

// Parse extracts the title, year, episode marker and resolution from a
// release name such as "Inception.2010.1080p.BluRay.x264-GROUP".
func Parse(name string) Info {
	var info Info

	s := strings.NewReplacer(".", " ", "_", " ").Replace(name)
	cut := len(s)

	if m := episodeRe.FindStringSubmatchIndex(s); m != nil {
		info.Season, _ = strconv.Atoi(s[m[2]:m[3]])
		info.Episode, _ = strconv.Atoi(s[m[4]:m[5]])
		cut = min(cut, m[0])
	}

	// The first year after the start of the string; a leading year is part
	// of the title ("2001 A Space Odyssey").
	for _, m := range yearRe.FindAllStringSubmatchIndex(s, -1) {
		if m[0] == 0 {
			continue
		}
		info.Year, _ = strconv.Atoi(s[m[2]:m[3]])
		cut = min(cut, m[0])
		break
	}

	if m := resolutionRe.FindStringIndex(s); m != nil {
		info.Resolution = normalizeResolution(s[m[0]:m[1]])
		cut = min(cut, m[0])
	}

	title := strings.TrimSpace(s[:cut])
	title = strings.TrimRight(title, " -([")
	info.Title = strings.Join(strings.Fields(title), " ")
	return info
}

func normalizeResolution(s string) string {
	switch strings.ToLower(s) {
	case "4k", "uhd", "2160p":
		return "2160p"
	default:
		return strings.ToLower(s)
	}
}
