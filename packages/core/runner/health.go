package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/http"
)

// waitPollInterval is the delay between health polls while waiting for the
// service to come up.
const waitPollInterval = 500 * time.Millisecond

func (r *Runner) healthRequest() *http.Request {
	req := http.NewRequest("GET", r.config.Endpoint.HealthURL())
	req.SetHeader("User-Agent", r.config.UserAgent)
	req.SetTimeout(r.config.HealthTimeout)
	req.SetAuth(r.config.Endpoint.Auth)
	return req
}

// probeHealth sends one GET to the health path. Only a 200 counts as healthy.
func (r *Runner) probeHealth(ctx context.Context) HealthResult {
	h := HealthResult{Checked: true}

	resp, err := r.client.Do(ctx, r.healthRequest())
	if err != nil {
		h.Message = fmt.Sprintf("health check failed: %v", err)
		return h
	}

	h.StatusCode = resp.StatusCode
	h.Duration = resp.Duration
	if resp.StatusCode == 200 {
		h.Healthy = true
		h.Message = "health check passed"
	} else {
		h.Message = fmt.Sprintf("health check returned: %d", resp.StatusCode)
	}
	return h
}

// checkHealth runs the probe. With WaitFor set it polls until the service is
// healthy or the wait expires, and reports the last probe either way.
func (r *Runner) checkHealth(ctx context.Context) HealthResult {
	if r.config.WaitFor <= 0 {
		return r.probeHealth(ctx)
	}

	r.logger.Infof("waiting up to %v for %s", r.config.WaitFor, r.config.Endpoint.HealthURL())
	deadline := time.Now().Add(r.config.WaitFor)
	for {
		h := r.probeHealth(ctx)
		if h.Healthy || time.Now().Add(waitPollInterval).After(deadline) {
			return h
		}
		r.logger.Debugf("service not ready: %s", h.Message)

		select {
		case <-ctx.Done():
			return h
		case <-time.After(waitPollInterval):
		}
	}
}
