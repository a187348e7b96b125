package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bandlink/internal/platforms"
	"bandlink/internal/services"
)

// LinkReporter accepts broken-link reports. Implemented by verify.Verifier.
type LinkReporter interface {
	Report(ctx context.Context, trackID string, platform platforms.Platform, reason string) error
}

// ReportRequest flags one stored link as broken.
type ReportRequest struct {
	TrackID  string `json:"track_id" binding:"required"`
	Platform string `json:"platform" binding:"required"`
	Reason   string `json:"reason,omitempty"`
}

// ReportHandler handles manual broken-link reports
type ReportHandler struct {
	reporter LinkReporter
}

// NewReportHandler creates a new report handler
func NewReportHandler(reporter LinkReporter) *ReportHandler {
	return &ReportHandler{reporter: reporter}
}

// Report handles POST /api/v1/report. The response never waits on the
// verification run the report triggers.
func (h *ReportHandler) Report(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	platform, err := platforms.Parse(req.Platform)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.reporter.Report(c.Request.Context(), req.TrackID, platform, req.Reason)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}
		slog.Error("Failed to accept report",
			"trackID", req.TrackID, "platform", req.Platform, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accepted": true})
}
