// Package geocode resolves free-text place names into coordinates and an
// IANA timezone, through either OSM Nominatim or the Google geocoding API.
package geocode

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bradfitz/latlong"
	"github.com/rs/zerolog"

	"github.com/astromitra/horoscope-engine/internal/apperr"
	"github.com/astromitra/horoscope-engine/internal/astro"
	"github.com/astromitra/horoscope-engine/internal/cache"
	"github.com/astromitra/horoscope-engine/internal/metrics"
)

// Provider selects the geocoding backend.
type Provider string

const (
	ProviderOSM    Provider = "osm"
	ProviderGoogle Provider = "google"
)

// Result is a backend's untrusted answer before validation. Coordinates stay
// strings until the resolver validates them.
type Result struct {
	Lat         string
	Lon         string
	DisplayName string
	City        string
	Country     string
}

// Backend is one geocoding source.
type Backend interface {
	Lookup(ctx context.Context, place string) (Result, error)
	Reverse(ctx context.Context, lat, lon float64) (string, error)
	Ping(ctx context.Context) error
}

// Resolver implements astro.LocationResolver over a set of backends with an
// optional read-through cache.
type Resolver struct {
	backends  map[Provider]Backend
	active    Provider
	cache     *cache.LocationCache
	collector *metrics.Collector
	logger    zerolog.Logger
}

// NewResolver builds a resolver that serves Resolve from the active
// provider. locCache may be nil to disable caching.
func NewResolver(
	backends map[Provider]Backend,
	active Provider,
	locCache *cache.LocationCache,
	collector *metrics.Collector,
	logger zerolog.Logger,
) (*Resolver, error) {
	if _, ok := backends[active]; !ok {
		return nil, fmt.Errorf("geocode: no backend registered for provider %q", active)
	}
	return &Resolver{
		backends:  backends,
		active:    active,
		cache:     locCache,
		collector: collector,
		logger:    logger.With().Str("component", "geocode").Logger(),
	}, nil
}

// Resolve looks up place with the configured provider.
func (r *Resolver) Resolve(ctx context.Context, place string) (astro.ResolvedLocation, error) {
	return r.ResolveWith(ctx, place, r.active)
}

// ResolveWith looks up place with an explicit provider. Coordinates are
// validated before use; out-of-range or non-numeric values are rejected,
// never clamped.
func (r *Resolver) ResolveWith(ctx context.Context, place string, provider Provider) (astro.ResolvedLocation, error) {
	key := NormalizePlace(place)
	if key == "" {
		return astro.ResolvedLocation{}, apperr.New(apperr.CodeValidation, "location must not be empty")
	}

	if r.cache != nil {
		if loc, ok := r.cache.Get(key); ok {
			r.collector.GeocodeCacheHits.Inc()
			return loc, nil
		}
		r.collector.GeocodeCacheMisses.Inc()
	}

	b, ok := r.backends[provider]
	if !ok {
		return astro.ResolvedLocation{}, apperr.New(apperr.CodeValidation,
			fmt.Sprintf("unknown geocoding provider %q", provider))
	}

	raw, err := b.Lookup(ctx, place)
	if err != nil {
		return astro.ResolvedLocation{}, err
	}

	lat, err := parseCoordinate("latitude", raw.Lat, 90)
	if err != nil {
		return astro.ResolvedLocation{}, err
	}
	lon, err := parseCoordinate("longitude", raw.Lon, 180)
	if err != nil {
		return astro.ResolvedLocation{}, err
	}

	zone := latlong.LookupZoneName(lat, lon)
	if zone == "" {
		return astro.ResolvedLocation{}, apperr.New(apperr.CodeLocationNotFound,
			fmt.Sprintf("no timezone known for coordinates of %q", place))
	}

	loc := astro.ResolvedLocation{
		Lat:         lat,
		Lon:         lon,
		Timezone:    zone,
		City:        raw.City,
		Country:     raw.Country,
		DisplayName: raw.DisplayName,
	}

	if r.cache != nil {
		r.cache.Set(key, loc)
	}

	r.logger.Debug().
		Str("place", place).
		Str("zone", zone).
		Float64("lat", lat).
		Float64("lon", lon).
		Msg("resolved location")
	return loc, nil
}

// Reverse returns a display name for coordinates using the configured
// provider.
func (r *Resolver) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	if err := checkRange("latitude", lat, 90); err != nil {
		return "", err
	}
	if err := checkRange("longitude", lon, 180); err != nil {
		return "", err
	}
	return r.backends[r.active].Reverse(ctx, lat, lon)
}

// Ping probes the active backend. Used by the health endpoint.
func (r *Resolver) Ping(ctx context.Context) error {
	return r.backends[r.active].Ping(ctx)
}

// NormalizePlace canonicalizes a free-text place for cache keying.
func NormalizePlace(place string) string {
	return strings.Join(strings.Fields(strings.ToLower(place)), " ")
}

func parseCoordinate(name, value string, bound float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, apperr.Wrap(apperr.CodeInvalidCoordinates,
			fmt.Sprintf("geocoder returned non-numeric %s %q", name, value), err)
	}
	if err := checkRange(name, v, bound); err != nil {
		return 0, err
	}
	return v, nil
}

func checkRange(name string, v, bound float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < -bound || v > bound {
		return apperr.New(apperr.CodeInvalidCoordinates,
			fmt.Sprintf("%s %v out of range [-%v, %v]", name, v, bound, bound))
	}
	return nil
}
