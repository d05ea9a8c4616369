package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/astromitra/horoscope-engine/internal/apperr"
)

const nominatimUserAgent = "horoscope-engine/1.0"

// NominatimBackend geocodes through the public OSM Nominatim API. No key is
// required, but the usage policy demands an identifying User-Agent.
type NominatimBackend struct {
	client  *http.Client
	baseURL string
}

// NewNominatim creates the OSM backend.
func NewNominatim(client *http.Client) *NominatimBackend {
	return &NominatimBackend{
		client:  client,
		baseURL: "https://nominatim.openstreetmap.org",
	}
}

func (b *NominatimBackend) Lookup(ctx context.Context, place string) (Result, error) {
	values := url.Values{}
	values.Set("q", place)
	values.Set("format", "jsonv2")
	values.Set("limit", "1")
	values.Set("addressdetails", "1")

	var payload []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
		Address     struct {
			City    string `json:"city"`
			Town    string `json:"town"`
			Village string `json:"village"`
			Country string `json:"country"`
		} `json:"address"`
	}

	if err := b.getJSON(ctx, "/search", values, &payload); err != nil {
		return Result{}, err
	}
	if len(payload) == 0 {
		return Result{}, apperr.New(apperr.CodeLocationNotFound,
			fmt.Sprintf("no geocoding results for %q", place))
	}

	first := payload[0]
	city := first.Address.City
	if city == "" {
		city = first.Address.Town
	}
	if city == "" {
		city = first.Address.Village
	}

	return Result{
		Lat:         first.Lat,
		Lon:         first.Lon,
		DisplayName: first.DisplayName,
		City:        city,
		Country:     first.Address.Country,
	}, nil
}

func (b *NominatimBackend) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("format", "jsonv2")

	var payload struct {
		DisplayName string `json:"display_name"`
	}
	if err := b.getJSON(ctx, "/reverse", values, &payload); err != nil {
		return "", err
	}
	if payload.DisplayName == "" {
		return "", apperr.New(apperr.CodeLocationNotFound, "no place at the given coordinates")
	}
	return payload.DisplayName, nil
}

func (b *NominatimBackend) Ping(ctx context.Context) error {
	return b.getJSON(ctx, "/status", url.Values{"format": []string{"json"}}, &struct{}{})
}

func (b *NominatimBackend) getJSON(ctx context.Context, path string, values url.Values, out any) error {
	u := fmt.Sprintf("%s%s?%s", b.baseURL, path, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to build geocoding request", err)
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.CodeProviderUnavailable, "geocoding service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.New(apperr.CodeProviderUnavailable,
			fmt.Sprintf("geocoding service returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.CodeProviderUnavailable, "malformed geocoding response", err)
	}
	return nil
}
