// Package blocking guesses whether a failure looks like regional ISP
// interference with the catalog API.
//
// Everything here is a best-effort heuristic. A match only changes which
// recovery strategies the fetcher tries; it never decides whether a request
// ultimately fails.
package blocking

import (
	"context"
	"strings"
)

// blockedIndicators are matched case-insensitively against error messages.
// The first group mirrors browser fetch failures, the second the wording of
// Go's net and net/http errors.
var blockedIndicators = []string{
	"network error",
	"failed to fetch",
	"cors",
	"blocked",
	"timeout",
	"connection refused",
	"dns",

	"no such host",
	"connection reset",
	"network is unreachable",
	"tls handshake",
}

// DefaultSuspectIndicators are carrier markers known to interfere with the API
var DefaultSuspectIndicators = []string{"jio", "reliance", "rjil"}

// LooksBlocked reports whether err reads like a blocked or intercepted request
func LooksBlocked(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, indicator := range blockedIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

// Hints is client-reported network metadata
type Hints struct {
	UserAgent      string
	ConnectionType string
}

type hintsKey struct{}

// WithHints attaches network hints to ctx
func WithHints(ctx context.Context, h Hints) context.Context {
	return context.WithValue(ctx, hintsKey{}, h)
}

// HintsFromContext returns the hints attached to ctx, if any
func HintsFromContext(ctx context.Context) (Hints, bool) {
	h, ok := ctx.Value(hintsKey{}).(Hints)
	return h, ok
}

// Detector checks client hints for carrier-specific markers
type Detector struct {
	indicators []string
	defaults   Hints
}

// NewDetector creates a detector. Empty indicators fall back to
// DefaultSuspectIndicators; defaults are used when a context carries no hints.
func NewDetector(indicators []string, defaults Hints) *Detector {
	if len(indicators) == 0 {
		indicators = DefaultSuspectIndicators
	}

	lowered := make([]string, 0, len(indicators))
	for _, ind := range indicators {
		if ind = strings.ToLower(strings.TrimSpace(ind)); ind != "" {
			lowered = append(lowered, ind)
		}
	}

	return &Detector{indicators: lowered, defaults: defaults}
}

// IsOnSuspectNetwork reports whether the hints name a known interfering carrier
func (d *Detector) IsOnSuspectNetwork(h Hints) bool {
	ua := strings.ToLower(h.UserAgent)
	conn := strings.ToLower(h.ConnectionType)

	for _, ind := range d.indicators {
		if strings.Contains(ua, ind) || (conn != "" && strings.Contains(conn, ind)) {
			return true
		}
	}
	return false
}

// IsOnSuspectNetworkContext checks the hints on ctx, or the detector defaults
func (d *Detector) IsOnSuspectNetworkContext(ctx context.Context) bool {
	h, ok := HintsFromContext(ctx)
	if !ok {
		h = d.defaults
	}
	return d.IsOnSuspectNetwork(h)
}
