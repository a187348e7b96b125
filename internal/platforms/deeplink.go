package platforms

import (
	"net/url"
	"strings"
)

// ClientOS is the coarse OS classification used for deep-link synthesis.
type ClientOS string

const (
	OSiOS     ClientOS = "ios"
	OSAndroid ClientOS = "android"
	OSOther   ClientOS = "other"
)

// ClassifyUserAgent maps a User-Agent header to a coarse OS bucket.
func ClassifyUserAgent(ua string) ClientOS {
	switch {
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"), strings.Contains(ua, "iPod"):
		return OSiOS
	case strings.Contains(ua, "Android"):
		return OSAndroid
	default:
		return OSOther
	}
}

// IsDeepLink reports whether rawURL has the strict deep-link shape for p.
// Aggregator results that fail this test are search or landing pages, not
// track pages, and must be dropped: a missing link is preferable to a link
// that breaks the one-tap promise.
func IsDeepLink(p Platform, rawURL string) bool {
	switch p {
	case Spotify:
		return strings.Contains(rawURL, "open.spotify.com/track/")
	case AppleMusic:
		return strings.Contains(rawURL, "music.apple.com") &&
			(strings.Contains(rawURL, "/song/") || strings.Contains(rawURL, "?i=") || strings.Contains(rawURL, "&i="))
	case YouTube:
		return strings.Contains(rawURL, "/watch?v=")
	case YouTubeMusic:
		return strings.Contains(rawURL, "music.youtube.com/watch?v=")
	case Deezer:
		return strings.Contains(rawURL, "deezer.com") && strings.Contains(rawURL, "/track/")
	case Tidal:
		return strings.Contains(rawURL, "tidal.com") && strings.Contains(rawURL, "/track/")
	case AmazonMusic:
		return strings.Contains(rawURL, "music.amazon") &&
			(strings.Contains(rawURL, "/tracks/") || strings.Contains(rawURL, "trackAsin="))
	case SoundCloud:
		return soundCloudTrackPath(rawURL)
	case Napster:
		return strings.Contains(rawURL, "napster.com") &&
			(strings.Contains(rawURL, "/track/") || strings.Contains(rawURL, "/song/"))
	default:
		return false
	}
}

func soundCloudTrackPath(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.HasSuffix(u.Hostname(), "soundcloud.com") {
		return false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	return parts[0] != "search" && parts[0] != "discover"
}

// DeepLink returns the link to hand a mobile client: a native-scheme URI
// where one is known to work, otherwise the canonical web URL. Only Spotify's
// scheme is reliable across app versions; every other platform deliberately
// falls back to the web URL.
func DeepLink(p Platform, webURL string, os ClientOS) string {
	if p == Spotify && (os == OSiOS || os == OSAndroid) {
		if id, ok := TrackID(Spotify, webURL); ok {
			return "spotify:track:" + id
		}
	}
	return webURL
}
