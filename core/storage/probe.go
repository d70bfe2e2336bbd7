package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// probePath is the store's unauthenticated index resource. MinIO
// answers it with 403 when running, which is exactly the signal the
// prober looks for.
const probePath = "/minio/index.html"

// Status is the result of an availability probe.
type Status struct {
	// Available reports whether the store answered with a healthy
	// response.
	Available bool
	// StatusCode is the HTTP status received, 0 when no response came
	// back at all.
	StatusCode int

	details []string
}

// AddMessage appends a human-readable detail line.
func (s *Status) AddMessage(text string) {
	s.details = append(s.details, text)
}

// Details returns the accumulated human-readable messages.
func (s Status) Details() string {
	return strings.Join(s.details, "\n")
}

func (s Status) String() string {
	if s.Available {
		return "storage is available"
	}
	return "storage is NOT available"
}

// Prober is a lightweight health check against the object store's
// HTTP endpoint. It never authenticates: a 403 means the server is up
// and simply guarding the resource, so it counts as available, as does
// any 2xx. Connection failures, timeouts and unexpected statuses
// report unavailable with a populated details message.
type Prober struct {
	baseURL string
	client  *http.Client
}

// NewProber builds a Prober for the configured internal endpoint.
func NewProber(cfg *Resolved) *Prober {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	return &Prober{
		baseURL: cfg.BaseURL(),
		client:  &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// BaseURL returns the endpoint the prober targets.
func (p *Prober) BaseURL() string { return p.baseURL }

// Probe issues the availability check.
func (p *Prober) Probe(ctx context.Context) Status {
	var status Status

	if p.baseURL == "" || strings.HasSuffix(p.baseURL, "://") {
		status.AddMessage("storage endpoint is not configured")
		return status
	}

	target := p.baseURL + probePath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		status.AddMessage(fmt.Sprintf("invalid probe request for %s: %v", target, err))
		return status
	}

	resp, err := p.client.Do(req)
	if err != nil {
		status.AddMessage(fmt.Sprintf("could not open connection to %s", target))
		status.AddMessage("reason: " + err.Error())
		return status
	}
	defer resp.Body.Close()

	status.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode == http.StatusForbidden:
		// The request was legal but the server refuses to serve the
		// resource, which means it is running fine.
		status.Available = true
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		status.Available = true
	default:
		status.AddMessage(fmt.Sprintf("unexpected response from %s: %s", target, resp.Status))
	}
	return status
}
