package geocode

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/astromitra/horoscope-engine/internal/apperr"
)

// GoogleBackend geocodes through the Google Maps API. The kelvins/geocoder
// library keys itself through a package variable, so the key is set once
// at construction and the backend must not be built twice with different
// keys.
type GoogleBackend struct{}

// NewGoogle creates the commercial backend with the given API key.
func NewGoogle(apiKey string) *GoogleBackend {
	geocoder.ApiKey = apiKey
	return &GoogleBackend{}
}

func (b *GoogleBackend) Lookup(_ context.Context, place string) (Result, error) {
	loc, err := geocoder.Geocoding(geocoder.Address{Street: place})
	if err != nil {
		return Result{}, classifyGoogleError(place, err)
	}

	result := Result{
		Lat: strconv.FormatFloat(loc.Latitude, 'f', -1, 64),
		Lon: strconv.FormatFloat(loc.Longitude, 'f', -1, 64),
	}

	// The forward call only yields coordinates; names come from the reverse
	// lookup and are best-effort.
	if addresses, err := geocoder.GeocodingReverse(loc); err == nil && len(addresses) > 0 {
		result.DisplayName = addresses[0].FormatAddress()
		result.City = addresses[0].City
		result.Country = addresses[0].Country
	}
	if result.DisplayName == "" {
		result.DisplayName = place
	}
	return result, nil
}

func (b *GoogleBackend) Reverse(_ context.Context, lat, lon float64) (string, error) {
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
	if err != nil {
		return "", apperr.Wrap(apperr.CodeProviderUnavailable, "reverse geocoding failed", err)
	}
	if len(addresses) == 0 {
		return "", apperr.New(apperr.CodeLocationNotFound, "no place at the given coordinates")
	}
	return addresses[0].FormatAddress(), nil
}

// Ping only verifies the key is configured; the Google API has no free
// status endpoint worth burning quota on.
func (b *GoogleBackend) Ping(_ context.Context) error {
	if geocoder.ApiKey == "" {
		return errors.New("google geocoding api key not configured")
	}
	return nil
}

func classifyGoogleError(place string, err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "no results") {
		return apperr.Wrap(apperr.CodeLocationNotFound,
			"no geocoding results for "+strconv.Quote(place), err)
	}
	return apperr.Wrap(apperr.CodeProviderUnavailable, "geocoding service failed", err)
}
