package engine

import (
	"net/url"
	"path"
	"strings"
)

// PlaybackKind selects how a URL is rendered.
type PlaybackKind string

const (
	PlaybackDirect PlaybackKind = "direct" // native video element
	PlaybackIFrame PlaybackKind = "iframe" // embedded page
)

// embedHosts are platforms that only work embedded, even when the path
// looks like a file.
var embedHosts = []string{
	"youtube.com", "youtu.be", "youtube-nocookie.com",
	"vimeo.com", "dailymotion.com", "twitch.tv",
	"streamable.com", "archive.org/embed",
}

var videoExtensions = []string{
	".mp4", ".m3u8", ".mkv", ".webm", ".mov", ".avi", ".mpd", ".ts", ".m4v",
}

// directHosts serve raw files.
var directHosts = []string{
	"download.real-debrid.com",
	"rdeb.io",
	"cloudfront.net",
	"storage.googleapis.com",
	"archive.org/download",
}

// Classify decides whether a URL plays in a native video element or an
// iframe. It only inspects the URL text, so it is a best-effort guess:
// embed platforms win, then video file extensions and known file hosts mean
// direct, and anything else is treated as an embed page.
func Classify(raw string) PlaybackKind {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return PlaybackIFrame
	}
	host := strings.ToLower(u.Hostname())
	hostPath := host + strings.ToLower(u.Path)

	for _, h := range embedHosts {
		if hostMatches(host, hostPath, h) {
			return PlaybackIFrame
		}
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, e := range videoExtensions {
		if ext == e {
			return PlaybackDirect
		}
	}
	for _, h := range directHosts {
		if hostMatches(host, hostPath, h) {
			return PlaybackDirect
		}
	}
	return PlaybackIFrame
}

// hostMatches matches a pattern against the host, its subdomains, or a
// host+path prefix when the pattern contains a slash.
func hostMatches(host, hostPath, pattern string) bool {
	if strings.Contains(pattern, "/") {
		return strings.HasPrefix(hostPath, pattern) || strings.Contains(hostPath, "."+pattern)
	}
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}
