package services

import (
	"context"
	"log/slog"
	"strings"

	"bandlink/internal/models"
	"bandlink/internal/platforms"
	"bandlink/internal/repositories"
)

// ResolutionService orchestrates the resolution pipeline: canonical identity
// from the source catalog, cross-platform expansion, normalization, and the
// upsert into the link store.
type ResolutionService struct {
	tracks     repositories.TrackRepository
	resolver   IdentityResolver
	expander   LinkExpander
	appleMusic ISRCLookup // optional supplementary lookup
}

// NewResolutionService creates a new resolution service
func NewResolutionService(tracks repositories.TrackRepository, resolver IdentityResolver, expander LinkExpander) *ResolutionService {
	return &ResolutionService{
		tracks:   tracks,
		resolver: resolver,
		expander: expander,
	}
}

// SetAppleMusicLookup enables the supplementary Apple Music ISRC path.
func (s *ResolutionService) SetAppleMusicLookup(lookup ISRCLookup) {
	s.appleMusic = lookup
}

// Resolve turns raw input (bare ID, URI, or URL) into a stored track with
// its platform links. Repeat resolutions of the same source are lookups.
func (s *ResolutionService) Resolve(ctx context.Context, input string) (*models.Track, error) {
	sourceID, err := ParseSpotifyInput(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.tracks.FindBySource(ctx, platforms.Spotify, sourceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	info, err := s.resolver.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	return s.storeResolved(ctx, info)
}

// ResolveISRC resolves by recording code, checking the store first.
func (s *ResolutionService) ResolveISRC(ctx context.Context, isrc string) (*models.Track, error) {
	existing, err := s.tracks.FindByISRC(ctx, isrc)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	info, err := s.resolver.ResolveISRC(ctx, isrc)
	if err != nil {
		return nil, err
	}

	// The catalog entry may already be stored under its source coordinates.
	existing, err = s.tracks.FindBySource(ctx, info.Platform, info.ExternalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	return s.storeResolved(ctx, info)
}

func (s *ResolutionService) storeResolved(ctx context.Context, info *TrackInfo) (*models.Track, error) {
	track := info.ToTrack()
	track.UpsertLink(info.Platform, info.URL, SourceConfidence)

	s.expandLinks(ctx, track)

	if err := s.tracks.Save(ctx, track); err != nil {
		return nil, err
	}

	slog.Info("Resolved new track",
		"trackID", track.ID.Hex(),
		"title", track.Title,
		"isrc", track.ISRC,
		"links", len(track.Links))

	return track, nil
}

// expandLinks fans the identity out to every platform via the aggregation
// service. Failures degrade to partial results; a track with only its source
// link is still worth storing.
func (s *ResolutionService) expandLinks(ctx context.Context, track *models.Track) {
	links, err := s.expander.Expand(ctx, ExpandQuery{
		ISRC:      track.ISRC,
		SourceURL: platforms.Normalize(track.SourcePlatform, track.SourceID),
	})
	if err != nil {
		slog.Error("Link expansion failed", "trackID", track.SourceID, "error", err)
		return
	}

	for platform, url := range links {
		if platform == track.SourcePlatform {
			continue
		}
		track.UpsertLink(platform, url, FreshConfidence)
	}

	s.supplementAppleMusic(ctx, track)
}

// supplementAppleMusic fills a missing Apple Music link from Apple's own
// catalog when the track has an ISRC. The candidate must still look like the
// same recording and pass the deep-link shape test.
func (s *ResolutionService) supplementAppleMusic(ctx context.Context, track *models.Track) {
	if s.appleMusic == nil || track.ISRC == "" || track.HasPlatform(platforms.AppleMusic) {
		return
	}

	info, err := s.appleMusic.LookupISRC(ctx, track.ISRC)
	if err != nil {
		slog.Debug("Apple Music supplement lookup failed", "isrc", track.ISRC, "error", err)
		return
	}

	if matchConfidence(track, info) < 0.7 {
		return
	}
	if !platforms.IsDeepLink(platforms.AppleMusic, info.URL) {
		return
	}

	track.UpsertLink(platforms.AppleMusic, info.URL, FreshConfidence)
	slog.Info("Filled Apple Music link from catalog", "isrc", track.ISRC)
}

// ReResolveLink re-derives the URL for one (track, platform) from the
// canonical identity. Used by the verifier when a stored link goes bad.
// Second return is false when the aggregation service has no match.
func (s *ResolutionService) ReResolveLink(ctx context.Context, track *models.Track, platform platforms.Platform) (string, bool) {
	links, err := s.expander.Expand(ctx, ExpandQuery{
		ISRC:      track.ISRC,
		SourceURL: platforms.Normalize(track.SourcePlatform, track.SourceID),
	})
	if err != nil {
		slog.Error("Re-resolution expansion failed",
			"trackID", track.ID.Hex(), "platform", platform, "error", err)
		return "", false
	}

	if url, ok := links[platform]; ok {
		return url, true
	}

	if platform == platforms.AppleMusic && s.appleMusic != nil && track.ISRC != "" {
		info, err := s.appleMusic.LookupISRC(ctx, track.ISRC)
		if err == nil && matchConfidence(track, info) >= 0.7 &&
			platforms.IsDeepLink(platforms.AppleMusic, info.URL) {
			return info.URL, true
		}
	}

	return "", false
}

// Health reports the health of the identity resolver.
func (s *ResolutionService) Health(ctx context.Context) map[string]error {
	return map[string]error{
		"spotify": s.resolver.Health(ctx),
	}
}

// matchConfidence scores how likely info describes the same recording as
// track. ISRC equality is definitive.
func matchConfidence(track *models.Track, info *TrackInfo) float64 {
	if track.ISRC != "" && info.ISRC != "" && track.ISRC == info.ISRC {
		return 1.0
	}

	score := 0.0

	if strings.EqualFold(track.Title, info.Title) {
		score += 0.5
	} else if fuzzyStringMatch(track.Title, info.Title) {
		score += 0.3
	}

	if artistsMatch(track.Artist, info.Artist) {
		score += 0.4
	}

	if track.Album != "" && info.Album != "" && strings.EqualFold(track.Album, info.Album) {
		score += 0.1
	}

	return score
}

// fuzzyStringMatch tolerates remix/version suffixes by checking containment
// after squashing case and whitespace.
func fuzzyStringMatch(s1, s2 string) bool {
	clean1 := strings.ToLower(strings.ReplaceAll(s1, " ", ""))
	clean2 := strings.ToLower(strings.ReplaceAll(s2, " ", ""))
	if clean1 == "" || clean2 == "" {
		return false
	}
	return strings.Contains(clean1, clean2) || strings.Contains(clean2, clean1)
}

func artistsMatch(a1, a2 string) bool {
	if a1 == "" || a2 == "" {
		return false
	}
	if strings.EqualFold(a1, a2) {
		return true
	}
	lower1 := strings.ToLower(a1)
	lower2 := strings.ToLower(a2)
	return strings.Contains(lower1, lower2) || strings.Contains(lower2, lower1)
}
