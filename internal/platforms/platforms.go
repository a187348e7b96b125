package platforms

import "fmt"

// Platform identifies a supported streaming platform. The set is closed:
// adding a platform means adding a constant here plus a rule table entry in
// normalize.go, and the exhaustiveness test will fail until both exist.
type Platform string

const (
	Spotify      Platform = "spotify"
	AppleMusic   Platform = "apple_music"
	YouTube      Platform = "youtube"
	YouTubeMusic Platform = "youtube_music"
	Deezer       Platform = "deezer"
	Tidal        Platform = "tidal"
	AmazonMusic  Platform = "amazon_music"
	SoundCloud   Platform = "soundcloud"
	Napster      Platform = "napster"
)

// All returns every supported platform in a stable order.
func All() []Platform {
	return []Platform{
		Spotify,
		AppleMusic,
		YouTube,
		YouTubeMusic,
		Deezer,
		Tidal,
		AmazonMusic,
		SoundCloud,
		Napster,
	}
}

// Parse validates a platform name.
func Parse(s string) (Platform, error) {
	p := Platform(s)
	for _, known := range All() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported platform: %q", s)
}

// IsValid reports whether p is a member of the supported set.
func (p Platform) IsValid() bool {
	_, err := Parse(string(p))
	return err == nil
}

func (p Platform) String() string {
	return string(p)
}
