package verify

import (
	"context"
	"net/http"
	"time"
)

// TimeoutStatus is the sentinel recorded when a probe fails at the transport
// layer (timeout, DNS, connection refused). It is outside the range real
// servers produce, so logs and metrics can tell timeouts from upstream 5xx.
const TimeoutStatus = 599

// Prober checks whether a stored URL still serves content.
type Prober interface {
	Probe(ctx context.Context, url string) int
}

// httpProber issues HEAD requests (not GET, to minimize cost) with redirects
// followed. It deliberately uses a bare http.Client: the decay model needs
// the raw first-attempt outcome, so no retry middleware belongs here.
type httpProber struct {
	client *http.Client
}

// NewProber creates a prober with a per-request timeout.
func NewProber(timeout time.Duration) Prober {
	return &httpProber{
		client: &http.Client{Timeout: timeout},
	}
}

// Probe returns the final status after redirects, or TimeoutStatus on any
// transport failure. A timed-out check is unhealthy, never left pending.
func (p *httpProber) Probe(ctx context.Context, url string) int {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return TimeoutStatus
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return TimeoutStatus
	}
	defer resp.Body.Close()

	return resp.StatusCode
}

// healthy classifies a probe status. 2xx and 3xx count as alive; anything
// else, including the timeout sentinel, is unhealthy.
func healthy(status int) bool {
	return status >= 200 && status < 400
}
