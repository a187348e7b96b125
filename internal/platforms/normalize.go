package platforms

import (
	"fmt"
	"regexp"
	"strings"
)

// pattern pairs an anchored regexp with a builder that synthesizes the
// canonical URL from the submatches. A builder may decline a match (second
// return false), in which case the next pattern is tried.
type pattern struct {
	re    *regexp.Regexp
	build func(m []string) (string, bool)
}

func idBuilder(format string) func(m []string) (string, bool) {
	return func(m []string) (string, bool) {
		return fmt.Sprintf(format, m[1]), true
	}
}

// Per-platform normalization rules. Each platform handles three input shapes:
// native URI schemes, web URLs carrying tracking parameters, and bare IDs
// promoted to a full URL. Patterns are anchored so a canonical URL always
// re-matches its own rule, which is what makes Normalize idempotent.
var rules = map[Platform][]pattern{
	Spotify: {
		{regexp.MustCompile(`^spotify:track:([A-Za-z0-9]{22})$`), idBuilder("https://open.spotify.com/track/%s")},
		{regexp.MustCompile(`^(?:https?://)?open\.spotify\.com/(?:intl-[a-z]{2}(?:-[A-Za-z]{2})?/)?track/([A-Za-z0-9]{22})(?:[?#].*)?$`), idBuilder("https://open.spotify.com/track/%s")},
		{regexp.MustCompile(`^([A-Za-z0-9]{22})$`), idBuilder("https://open.spotify.com/track/%s")},
	},
	AppleMusic: {
		{regexp.MustCompile(`^(?:https?://)?(?:geo\.)?music\.apple\.com/(?:[a-z]{2}/)?song/(?:[^/?#]+/)?(\d+)(?:[?#].*)?$`), idBuilder("https://music.apple.com/us/song/%s")},
		{regexp.MustCompile(`^(?:https?://)?(?:geo\.)?music\.apple\.com/[^?#]*[?&]i=(\d+)(?:[&#].*)?$`), idBuilder("https://music.apple.com/us/song/%s")},
		{regexp.MustCompile(`^(\d+)$`), idBuilder("https://music.apple.com/us/song/%s")},
	},
	YouTube: {
		{regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?youtube\.com/watch\?(?:[^#&]*&)*v=([A-Za-z0-9_-]{11})(?:[&#].*)?$`), idBuilder("https://www.youtube.com/watch?v=%s")},
		{regexp.MustCompile(`^(?:https?://)?youtu\.be/([A-Za-z0-9_-]{11})(?:[?#].*)?$`), idBuilder("https://www.youtube.com/watch?v=%s")},
		{regexp.MustCompile(`^([A-Za-z0-9_-]{11})$`), idBuilder("https://www.youtube.com/watch?v=%s")},
	},
	YouTubeMusic: {
		{regexp.MustCompile(`^(?:https?://)?music\.youtube\.com/watch\?(?:[^#&]*&)*v=([A-Za-z0-9_-]{11})(?:[&#].*)?$`), idBuilder("https://music.youtube.com/watch?v=%s")},
		{regexp.MustCompile(`^([A-Za-z0-9_-]{11})$`), idBuilder("https://music.youtube.com/watch?v=%s")},
	},
	Deezer: {
		{regexp.MustCompile(`^deezer://www\.deezer\.com/track/(\d+)$`), idBuilder("https://www.deezer.com/track/%s")},
		{regexp.MustCompile(`^(?:https?://)?(?:www\.)?deezer\.com/(?:[a-z]{2}/)?track/(\d+)(?:[?#].*)?$`), idBuilder("https://www.deezer.com/track/%s")},
		{regexp.MustCompile(`^(\d+)$`), idBuilder("https://www.deezer.com/track/%s")},
	},
	Tidal: {
		{regexp.MustCompile(`^(?:https?://)?(?:www\.|listen\.)?tidal\.com/(?:browse/)?track/(\d+)(?:[?#].*)?$`), idBuilder("https://tidal.com/browse/track/%s")},
		{regexp.MustCompile(`^(?:https?://)?(?:www\.|listen\.)?tidal\.com/[^?#]*[?&]trackId=(\d+)(?:[&#].*)?$`), idBuilder("https://tidal.com/browse/track/%s")},
		{regexp.MustCompile(`^(\d+)$`), idBuilder("https://tidal.com/browse/track/%s")},
	},
	AmazonMusic: {
		{regexp.MustCompile(`^(?:https?://)?music\.amazon\.(?:com|[a-z]{2}|com?\.[a-z]{2})/tracks/([A-Z0-9]{10})(?:[?#].*)?$`), idBuilder("https://music.amazon.com/tracks/%s")},
		{regexp.MustCompile(`^(?:https?://)?music\.amazon\.(?:com|[a-z]{2}|com?\.[a-z]{2})/[^?#]*[?&]trackAsin=([A-Z0-9]{10})(?:[&#].*)?$`), idBuilder("https://music.amazon.com/tracks/%s")},
		{regexp.MustCompile(`^(B0[A-Z0-9]{8})$`), idBuilder("https://music.amazon.com/tracks/%s")},
	},
	SoundCloud: {
		{regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?soundcloud\.com/([^/?#]+)/([^/?#]+)(?:[?#].*)?$`), func(m []string) (string, bool) {
			switch m[1] {
			case "search", "discover", "you", "stream", "charts":
				return "", false
			}
			return fmt.Sprintf("https://soundcloud.com/%s/%s", m[1], m[2]), true
		}},
	},
	Napster: {
		{regexp.MustCompile(`^(?:https?://)?(?:[a-z]{2}\.|www\.|web\.|app\.)?napster\.com/((?:[^?#]*/)?(?:track|song)/[^/?#]+)(?:[?#].*)?$`), func(m []string) (string, bool) {
			return "https://web.napster.com/" + m[1], true
		}},
	},
}

// Normalize rewrites raw input into the canonical web URL for p. Unrecognized
// input passes through unchanged so display-only callers degrade gracefully.
func Normalize(p Platform, raw string) string {
	in := strings.TrimSpace(raw)
	for _, pat := range rules[p] {
		m := pat.re.FindStringSubmatch(in)
		if m == nil {
			continue
		}
		if out, ok := pat.build(m); ok {
			return out
		}
	}
	return raw
}

// TrackID extracts the platform-native track identifier from raw input, using
// the same rule table as Normalize.
func TrackID(p Platform, raw string) (string, bool) {
	in := strings.TrimSpace(raw)
	for _, pat := range rules[p] {
		m := pat.re.FindStringSubmatch(in)
		if m == nil {
			continue
		}
		if _, ok := pat.build(m); ok {
			return m[1], true
		}
	}
	return "", false
}
