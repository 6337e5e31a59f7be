// Package geocode resolves ZIP codes to coordinates via the Census Geocoder.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client geocodes ZIP codes.
type Client interface {
	// GeocodeZip looks up the coordinates for a 5-digit ZIP code.
	GeocodeZip(ctx context.Context, zip string) (*Result, error)
}

// Result holds the geocoding output for a ZIP code.
type Result struct {
	Latitude  float64
	Longitude float64
	Source    string // "census"
	Matched   bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithHTTPClient sets a custom HTTP client for Census requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithTimeout bounds each Census request.
func WithTimeout(d time.Duration) Option {
	return func(g *geocoder) {
		g.timeout = d
	}
}

// WithRateLimit sets the requests-per-second rate limit for Census API calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type geocoder struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(5, 5),
		timeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}
