package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bandlink/internal/platforms"
	"bandlink/internal/repositories"
)

// SmartLinkResponse is the payload behind GET /links/:slug: presentation
// metadata plus every stored platform link, with an OS-appropriate deep link
// derived from the caller's User-Agent.
type SmartLinkResponse struct {
	Slug          string                   `json:"slug"`
	Title         string                   `json:"title"`
	Template      string                   `json:"template,omitempty"`
	CoverImageURL string                   `json:"cover_image_url,omitempty"`
	Track         TrackPayload             `json:"track"`
	Platforms     map[string]PlatformEntry `json:"platforms"`
}

// PlatformEntry pairs the canonical web URL with the link a mobile client
// should open, plus the current trust in that URL.
type PlatformEntry struct {
	URL        string  `json:"url"`
	DeepLink   string  `json:"deep_link"`
	Confidence float64 `json:"confidence"`
}

// SmartLinkHandler serves the public redirect/read surface.
type SmartLinkHandler struct {
	smartLinks repositories.SmartLinkRepository
	tracks     repositories.TrackRepository
}

// NewSmartLinkHandler creates a new smart-link handler
func NewSmartLinkHandler(smartLinks repositories.SmartLinkRepository, tracks repositories.TrackRepository) *SmartLinkHandler {
	return &SmartLinkHandler{
		smartLinks: smartLinks,
		tracks:     tracks,
	}
}

// Get handles GET /links/:slug
func (h *SmartLinkHandler) Get(c *gin.Context) {
	slug := c.Param("slug")

	smartLink, err := h.smartLinks.FindBySlug(c.Request.Context(), slug)
	if err != nil {
		slog.Error("Failed to load smart link", "slug", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load link"})
		return
	}
	if smartLink == nil || !smartLink.Active {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}

	track, err := h.tracks.FindByID(c.Request.Context(), smartLink.TrackID.Hex())
	if err != nil || track == nil {
		slog.Error("Smart link references missing track",
			"slug", slug, "trackID", smartLink.TrackID.Hex(), "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}

	// Click tracking is best-effort; serving the link wins over counting it.
	if err := h.smartLinks.IncrementClicks(c.Request.Context(), smartLink.ID); err != nil {
		slog.Warn("Failed to increment clicks", "slug", slug, "error", err)
	}

	clientOS := platforms.ClassifyUserAgent(c.GetHeader("User-Agent"))

	entries := make(map[string]PlatformEntry, len(track.Links))
	for _, link := range track.Links {
		entries[string(link.Platform)] = PlatformEntry{
			URL:        link.URL,
			DeepLink:   platforms.DeepLink(link.Platform, link.URL, clientOS),
			Confidence: link.Confidence,
		}
	}

	c.JSON(http.StatusOK, SmartLinkResponse{
		Slug:          smartLink.Slug,
		Title:         smartLink.Title,
		Template:      smartLink.Template,
		CoverImageURL: smartLink.CoverImageURL,
		Track:         toTrackPayload(track),
		Platforms:     entries,
	})
}
