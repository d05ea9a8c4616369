package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/astromitra/horoscope-engine/internal/astro"
)

func testRequest() astro.ComputationRequest {
	return astro.ComputationRequest{
		Location: astro.ResolvedLocation{
			Lat: 27.708317, Lon: 85.3205817,
			Timezone: "Asia/Kathmandu", City: "Kathmandu", Country: "Nepal",
		},
		Instant: astro.ResolvedInstant{
			UTC:           time.Date(1990, 1, 1, 4, 45, 0, 0, time.UTC),
			OffsetMinutes: 345,
		},
		Ayanamsa: astro.AyanamsaLahiri,
	}
}

func TestChartDecodesWrappedPayload(t *testing.T) {
	var gotBody computeBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/v1/chart" {
			t.Errorf("path = %s", req.URL.Path)
		}
		if auth := req.Header.Get("Authorization"); auth != "Bearer sekrit" {
			t.Errorf("auth header = %q", auth)
		}
		raw, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("request body: %v", err)
		}
		w.Write([]byte(`{"status":"ok","data":{"ascendant":{"name":"Ascendant","sign":{"name":"Capricorn"}}}}`))
	}))
	defer srv.Close()

	c := NewVedAstro(srv.Client(), srv.URL, "sekrit")
	payload, err := c.Chart(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Ascendant == nil || payload.Ascendant.Sign.Name != "Capricorn" {
		t.Errorf("payload = %+v", payload)
	}

	// The wire datetime must be the local reading with its historical offset.
	if gotBody.Datetime != "1990-01-01T10:30:00+05:45" {
		t.Errorf("datetime = %q, want 1990-01-01T10:30:00+05:45", gotBody.Datetime)
	}
	if gotBody.Ayanamsa != "lahiri" {
		t.Errorf("ayanamsa = %q", gotBody.Ayanamsa)
	}
}

func TestMissingTokenFailsBeforeAnyCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		t.Error("request should not reach the provider")
	}))
	defer srv.Close()

	c := NewVedAstro(srv.Client(), srv.URL, "")
	if _, err := c.Period(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewVedAstro(srv.Client(), srv.URL, "sekrit")
	if _, err := c.Almanac(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestCallTimeoutPropagatesContextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewVedAstro(srv.Client(), srv.URL, "sekrit")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Chart(ctx, testRequest())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 150*time.Millisecond {
		t.Error("call did not respect its timeout")
	}
}
