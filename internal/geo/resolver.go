// Package geo resolves free-text job locations to coordinates through a
// cache, an offline postcode table, and an online geocoding service.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
	"unicode"

	"golang.org/x/time/rate"

	"JobRadar/internal/ports"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// Resolver implements ports.Geocoder. The cache lives for the resolver's
// lifetime and is guarded for shared use; online calls are token-paced at
// one per second to respect the geocoding service's usage policy.
type Resolver struct {
	postcodes     *PostcodeIndex
	client        *http.Client
	endpoint      string
	userAgent     string
	chainFallback bool
	limiter       *rate.Limiter
	logger        *slog.Logger

	mu    sync.Mutex
	cache map[string][2]*float64
}

var _ ports.Geocoder = (*Resolver)(nil)

// Options tunes resolver construction; zero values pick sane defaults.
type Options struct {
	Postcodes *PostcodeIndex
	Client    *http.Client
	Endpoint  string
	UserAgent string
	// ChainFallback lets an offline postcode miss fall through to the online
	// path. Off by default: a digit-bearing location picks the postcode path
	// once and a miss stays a miss, avoiding wasted online calls for
	// numeric-looking but invalid postcodes.
	ChainFallback bool
	Logger        *slog.Logger
}

// NewResolver builds a geocoder with an empty cache.
func NewResolver(opts Options) *Resolver {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = defaultNominatimURL
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "JobRadar/1.0"
	}

	return &Resolver{
		postcodes:     opts.Postcodes,
		client:        client,
		endpoint:      endpoint,
		userAgent:     userAgent,
		chainFallback: opts.ChainFallback,
		limiter:       rate.NewLimiter(rate.Every(time.Second), 1),
		logger:        opts.Logger,
		cache:         make(map[string][2]*float64),
	}
}

// Resolve looks up coordinates for a location string. Any transport error,
// non-2xx status, or empty result set is a recoverable miss: (nil, nil).
func (r *Resolver) Resolve(ctx context.Context, location string) (*float64, *float64) {
	if location == "" {
		return nil, nil
	}

	if lat, lon, ok := r.cached(location); ok {
		return lat, lon
	}

	if containsDigit(location) {
		lat, lon := r.postcodes.Lookup(location)
		if lat != nil || !r.chainFallback {
			return lat, lon
		}
	}

	lat, lon := r.search(ctx, location)
	if lat != nil && lon != nil {
		r.store(location, lat, lon)
	}
	return lat, lon
}

func (r *Resolver) cached(location string) (*float64, *float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pair, ok := r.cache[location]
	if !ok {
		return nil, nil, false
	}
	return pair[0], pair[1], true
}

func (r *Resolver) store(location string, lat, lon *float64) {
	r.mu.Lock()
	r.cache[location] = [2]*float64{lat, lon}
	r.mu.Unlock()
}

func (r *Resolver) search(ctx context.Context, location string) (*float64, *float64) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, nil
	}

	query := url.Values{}
	query.Set("q", location)
	query.Set("format", "json")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		r.warn("build geocode request", location, err)
		return nil, nil
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		r.warn("geocode request", location, err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.warn("geocode status", location, fmt.Errorf("unexpected status %s", resp.Status))
		return nil, nil
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		r.warn("decode geocode response", location, err)
		return nil, nil
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return nil, nil
	}

	return &lat, &lon
}

func (r *Resolver) warn(msg, location string, err error) {
	if r.logger != nil {
		r.logger.Warn(msg, "location", location, "error", err)
	}
}

func containsDigit(s string) bool {
	for _, ch := range s {
		if unicode.IsDigit(ch) {
			return true
		}
	}
	return false
}
