package verify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"bandlink/internal/metrics"
	"bandlink/internal/models"
	"bandlink/internal/platforms"
	"bandlink/internal/repositories"
	"bandlink/internal/services"
)

// Confidence adjustments. The scheduler's decay step is larger than the
// report penalty because a failed HEAD check is confirmed evidence while a
// user report is not.
const (
	DecayStep     = 0.25
	ReportPenalty = 0.15
)

// ReResolver re-derives a platform URL from a track's canonical identity.
// Implemented by services.ResolutionService.
type ReResolver interface {
	ReResolveLink(ctx context.Context, track *models.Track, platform platforms.Platform) (string, bool)
}

// Result summarizes one verification pass.
type Result struct {
	OK      int
	Fixed   int
	Dropped int
}

// Verifier is the self-healing core: it sweeps stored links in staleness
// order, probes them concurrently, decays confidence on failure, and repairs
// what re-resolution can repair. It is stateless between runs.
type Verifier struct {
	tracks      repositories.TrackRepository
	resolver    ReResolver
	prober      Prober
	batchSize   int
	concurrency int

	reports   chan reportJob
	startOnce sync.Once
	done      chan struct{}
}

type reportJob struct {
	id       string
	trackID  string
	platform platforms.Platform
}

type linkJob struct {
	track *models.Track
	link  models.PlatformLink
}

// NewVerifier creates a verification engine.
func NewVerifier(tracks repositories.TrackRepository, resolver ReResolver, prober Prober, batchSize, concurrency int) *Verifier {
	return &Verifier{
		tracks:      tracks,
		resolver:    resolver,
		prober:      prober,
		batchSize:   batchSize,
		concurrency: concurrency,
		reports:     make(chan reportJob, 64),
		done:        make(chan struct{}),
	}
}

// RunBatch verifies one staleness-ordered batch. Probes run on a bounded
// worker pool so batch wall-clock time stays bounded regardless of size;
// re-resolution traffic is serialized by the expander's shared rate limiter.
// A single link's failure never aborts the batch.
func (v *Verifier) RunBatch(ctx context.Context) (Result, error) {
	tracks, err := v.tracks.FindStalest(ctx, v.batchSize)
	if err != nil {
		return Result{}, err
	}

	jobs := make(chan linkJob)
	var mu sync.Mutex
	var result Result

	var wg sync.WaitGroup
	for i := 0; i < v.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				outcome := v.checkLink(ctx, job.track, job.link)
				mu.Lock()
				switch outcome {
				case outcomeOK:
					result.OK++
				case outcomeFixed:
					result.Fixed++
				case outcomeDropped:
					result.Dropped++
				}
				mu.Unlock()
			}
		}()
	}

	for _, track := range tracks {
		for _, link := range track.Links {
			select {
			case jobs <- linkJob{track: track, link: link}:
			case <-ctx.Done():
				close(jobs)
				wg.Wait()
				return result, ctx.Err()
			}
		}
	}
	close(jobs)
	wg.Wait()

	slog.Info("Verification batch finished",
		"tracks", len(tracks),
		"ok", result.OK,
		"fixed", result.Fixed,
		"dropped", result.Dropped)

	metrics.VerifyOK.Add(float64(result.OK))
	metrics.VerifyFixed.Add(float64(result.Fixed))
	metrics.VerifyDropped.Add(float64(result.Dropped))

	return result, nil
}

// VerifyTrack runs a targeted pass over one track, bypassing batch
// selection. Used by report intake.
func (v *Verifier) VerifyTrack(ctx context.Context, trackID string) (Result, error) {
	track, err := v.tracks.FindByID(ctx, trackID)
	if err != nil {
		return Result{}, err
	}
	if track == nil {
		return Result{}, services.ErrNotFound
	}

	var result Result
	for _, link := range track.Links {
		switch v.checkLink(ctx, track, link) {
		case outcomeOK:
			result.OK++
		case outcomeFixed:
			result.Fixed++
		case outcomeDropped:
			result.Dropped++
		}
	}
	return result, nil
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeFixed
	outcomeDropped
)

// checkLink probes one stored URL and writes the consequences. Confidence is
// only restored by a successful re-resolution, never by a healthy probe
// alone: a 200 proves the URL serves something, not that it still serves
// this track.
func (v *Verifier) checkLink(ctx context.Context, track *models.Track, link models.PlatformLink) outcome {
	status := v.prober.Probe(ctx, link.URL)
	now := time.Now()
	link.LastCheckedStatus = &status

	if healthy(status) {
		link.LastVerifiedAt = &now
		v.writeLink(ctx, track, link)
		return outcomeOK
	}

	link.Confidence = models.ClampConfidence(link.Confidence - DecayStep)

	if url, ok := v.resolver.ReResolveLink(ctx, track, link.Platform); ok {
		link.URL = url
		link.Confidence = services.FreshConfidence
		link.LastVerifiedAt = &now
		v.writeLink(ctx, track, link)
		slog.Info("Repaired link via re-resolution",
			"trackID", track.ID.Hex(), "platform", link.Platform, "status", status)
		return outcomeFixed
	}

	// No replacement found: keep the URL and the decayed confidence for
	// the next sweep. lastVerifiedAt stays put so the link remains at the
	// front of the staleness order.
	v.writeLink(ctx, track, link)
	slog.Warn("Link unhealthy, no replacement found",
		"trackID", track.ID.Hex(),
		"platform", link.Platform,
		"status", status,
		"confidence", link.Confidence)
	return outcomeDropped
}

func (v *Verifier) writeLink(ctx context.Context, track *models.Track, link models.PlatformLink) {
	if err := v.tracks.UpdateLink(ctx, track.ID, link); err != nil {
		slog.Error("Failed to persist link verification",
			"trackID", track.ID.Hex(), "platform", link.Platform, "error", err)
	}
}

// Report applies the soft penalty for a user-flagged link and enqueues a
// targeted verification pass. The caller's response never waits on that run.
// Returns services.ErrNotFound without mutating anything when the (track,
// platform) link does not exist.
func (v *Verifier) Report(ctx context.Context, trackID string, platform platforms.Platform, reason string) error {
	track, err := v.tracks.FindByID(ctx, trackID)
	if err != nil {
		return err
	}
	if track == nil {
		return services.ErrNotFound
	}

	link := track.Link(platform)
	if link == nil {
		return services.ErrNotFound
	}

	flagged := *link
	flagged.Confidence = models.ClampConfidence(flagged.Confidence - ReportPenalty)
	if err := v.tracks.UpdateLink(ctx, track.ID, flagged); err != nil {
		return err
	}

	job := reportJob{
		id:       uuid.NewString(),
		trackID:  trackID,
		platform: platform,
	}

	select {
	case v.reports <- job:
		slog.Info("Broken-link report queued",
			"reportID", job.id, "trackID", trackID, "platform", platform, "reason", reason)
	default:
		// Queue full: the penalty is already applied and the nightly
		// sweep will pick the link up, so still accept the report.
		slog.Warn("Report queue full, relying on scheduled sweep",
			"trackID", trackID, "platform", platform)
	}

	metrics.ReportsAccepted.Inc()
	return nil
}

// Start launches the background drainer for report-triggered verification.
func (v *Verifier) Start() {
	v.startOnce.Do(func() {
		go v.drainReports()
	})
}

// Stop shuts the drainer down after the queue empties.
func (v *Verifier) Stop() {
	close(v.reports)
	<-v.done
}

func (v *Verifier) drainReports() {
	defer close(v.done)
	for job := range v.reports {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		result, err := v.VerifyTrack(ctx, job.trackID)
		cancel()
		if err != nil {
			slog.Error("Report-triggered verification failed",
				"reportID", job.id, "trackID", job.trackID, "error", err)
			continue
		}
		slog.Info("Report-triggered verification finished",
			"reportID", job.id,
			"trackID", job.trackID,
			"ok", result.OK,
			"fixed", result.Fixed,
			"dropped", result.Dropped)
	}
}
