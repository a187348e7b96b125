package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bandlink/internal/metrics"
	"bandlink/internal/models"
	"bandlink/internal/services"
)

// TrackResolver is the resolution surface the handler needs.
type TrackResolver interface {
	Resolve(ctx context.Context, input string) (*models.Track, error)
	ResolveISRC(ctx context.Context, isrc string) (*models.Track, error)
	Health(ctx context.Context) map[string]error
}

// ResolveRequest accepts either a source URL (or URI/bare ID) or an ISRC.
type ResolveRequest struct {
	URL  string `json:"url,omitempty"`
	ISRC string `json:"isrc,omitempty"`
}

// ResolveResponse carries the canonical identity and the expanded link set.
type ResolveResponse struct {
	Track TrackPayload      `json:"track"`
	Links map[string]string `json:"links"`
}

// TrackPayload is the wire shape of a canonical identity.
type TrackPayload struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	ISRC       string `json:"isrc,omitempty"`
	DurationMs int    `json:"duration_ms,omitempty"`
	ArtworkURL string `json:"artwork_url,omitempty"`
}

// ResolveHandler handles track resolution requests
type ResolveHandler struct {
	resolver TrackResolver
}

// NewResolveHandler creates a new resolve handler
func NewResolveHandler(resolver TrackResolver) *ResolveHandler {
	return &ResolveHandler{resolver: resolver}
}

// Resolve handles POST /api/v1/resolve
func (h *ResolveHandler) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if req.URL == "" && req.ISRC == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either url or isrc is required"})
		return
	}

	var track *models.Track
	var err error
	if req.URL != "" {
		track, err = h.resolver.Resolve(c.Request.Context(), req.URL)
	} else {
		track, err = h.resolver.ResolveISRC(c.Request.Context(), req.ISRC)
	}

	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			slog.Error("Failed to resolve track", "url", req.URL, "isrc", req.ISRC, "error", err)
		}
		c.JSON(status, gin.H{"error": "Failed to resolve track", "details": err.Error()})
		return
	}

	metrics.TracksResolved.Inc()
	c.JSON(http.StatusOK, ResolveResponse{
		Track: toTrackPayload(track),
		Links: linkMap(track),
	})
}

func toTrackPayload(track *models.Track) TrackPayload {
	return TrackPayload{
		ID:         track.ID.Hex(),
		Title:      track.Title,
		Artist:     track.Artist,
		Album:      track.Album,
		ISRC:       track.ISRC,
		DurationMs: track.DurationMs,
		ArtworkURL: track.ArtworkURL,
	}
}

func linkMap(track *models.Track) map[string]string {
	links := make(map[string]string, len(track.Links))
	for _, link := range track.Links {
		links[string(link.Platform)] = link.URL
	}
	return links
}

// statusForError maps the service error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrBadInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
