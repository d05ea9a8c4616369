// Package providers holds concrete clients for the external computation
// service.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/astromitra/horoscope-engine/internal/astro"
)

// VedAstroClient implements astro.ProviderClient against a VedAstro-style
// HTTP API. Each capability is its own endpoint; auth is a bearer token
// supplied through config.
type VedAstroClient struct {
	name    string
	baseURL string
	token   string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewVedAstro creates the client. baseURL has no trailing slash.
func NewVedAstro(client *http.Client, baseURL, token string) *VedAstroClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "vedastro",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &VedAstroClient{
		name:    "vedastro",
		baseURL: baseURL,
		token:   token,
		client:  client,
		circuit: cb,
	}
}

func (c *VedAstroClient) Name() string {
	return c.name
}

// Chart fetches the natal chart payload.
func (c *VedAstroClient) Chart(ctx context.Context, req astro.ComputationRequest) (*astro.ChartPayload, error) {
	return postCompute[astro.ChartPayload](ctx, c, "/v1/chart", req)
}

// Period fetches the current Vimshottari dasha payload.
func (c *VedAstroClient) Period(ctx context.Context, req astro.ComputationRequest) (*astro.PeriodPayload, error) {
	return postCompute[astro.PeriodPayload](ctx, c, "/v1/dasha", req)
}

// Almanac fetches the panchang payload for the birth date.
func (c *VedAstroClient) Almanac(ctx context.Context, req astro.ComputationRequest) (*astro.AlmanacPayload, error) {
	return postCompute[astro.AlmanacPayload](ctx, c, "/v1/panchang", req)
}

// Ping probes the provider's status endpoint.
func (c *VedAstroClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/status", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider status endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// computeBody is the wire form of a computation request. The provider wants
// the birth moment as local time with its UTC offset, which is exactly what
// ResolvedInstant encodes.
type computeBody struct {
	Datetime  string  `json:"datetime"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Ayanamsa  string  `json:"ayanamsa"`
}

func wireBody(req astro.ComputationRequest) computeBody {
	local := req.Instant.UTC.In(time.FixedZone("", req.Instant.OffsetMinutes*60))
	return computeBody{
		Datetime:  local.Format(time.RFC3339),
		Latitude:  req.Location.Lat,
		Longitude: req.Location.Lon,
		Timezone:  req.Location.Timezone,
		Ayanamsa:  req.Ayanamsa.Name(),
	}
}

func postCompute[T any](ctx context.Context, c *VedAstroClient, path string, req astro.ComputationRequest) (*T, error) {
	if c.token == "" {
		return nil, fmt.Errorf("vedastro api token is not configured")
	}

	body, err := json.Marshal(wireBody(req))
	if err != nil {
		return nil, err
	}

	buildRequest := func() (*http.Request, error) {
		httpReq, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
		return httpReq, nil
	}

	resp, err := doRequest(ctx, c.client, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed provider response: %w", err)
	}
	if payload.Status != "" && payload.Status != "ok" {
		return nil, fmt.Errorf("provider returned status %q", payload.Status)
	}

	return &payload.Data, nil
}
