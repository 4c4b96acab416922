// Package geocode resolves free-text place names to coordinates via
// Nominatim (primary) and the Google Geocoding API (optional fallback).
package geocode

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Client geocodes place names like "Tainan, Taiwan" or "Chile".
type Client interface {
	// Geocode resolves a single place name. A nil error with Matched=false
	// means the providers answered but found nothing.
	Geocode(ctx context.Context, place string) (*Result, error)
}

// Result holds the geocoding output for a place.
type Result struct {
	Latitude    float64
	Longitude   float64
	Source      string // "nominatim" or "google"
	DisplayName string
	Matched     bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithGoogleAPIKey enables Google Geocoding API as a fallback.
func WithGoogleAPIKey(key string) Option {
	return func(g *geocoder) {
		g.googleKey = key
	}
}

// WithHTTPClient sets a custom HTTP client for both Nominatim and Google requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit. Nominatim's usage
// policy asks for at most one request per second.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithUserAgent sets the User-Agent sent to Nominatim, which requires an
// identifying agent string.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		g.userAgent = ua
	}
}

type geocoder struct {
	httpClient *http.Client
	googleKey  string
	userAgent  string
	limiter    *rate.Limiter

	mu    sync.RWMutex
	cache map[string]Result
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		userAgent:  "partscope/1.0",
		limiter:    rate.NewLimiter(1, 1), // Nominatim policy: 1 req/s
		cache:      make(map[string]Result),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode resolves a place name, consulting the in-memory cache first.
// Non-matches are cached too so repeated unknown places cost one lookup.
func (g *geocoder) Geocode(ctx context.Context, place string) (*Result, error) {
	key := cacheKey(place)
	if cached, ok := g.checkCache(key); ok {
		return cached, nil
	}

	result, err := g.geocodeNominatim(ctx, place)
	if (err != nil || !result.Matched) && g.googleKey != "" {
		gr, gerr := g.geocodeGoogle(ctx, place)
		if gerr == nil {
			result, err = gr, nil
		}
	}
	if err != nil {
		return nil, err
	}

	g.storeCache(key, result)
	return result, nil
}
