package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/astromitra/horoscope-engine/internal/apperr"
	"github.com/astromitra/horoscope-engine/internal/cache"
	"github.com/astromitra/horoscope-engine/internal/common"
	"github.com/astromitra/horoscope-engine/internal/metrics"
)

const kathmanduJSON = `[{
	"lat": "27.708317",
	"lon": "85.3205817",
	"display_name": "Kathmandu, Bagmati Province, Nepal",
	"address": {"city": "Kathmandu", "country": "Nepal"}
}]`

func newTestResolver(t *testing.T, handler http.Handler, locCache *cache.LocationCache) (*Resolver, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	nb := &NominatimBackend{client: srv.Client(), baseURL: srv.URL}
	r, err := NewResolver(
		map[Provider]Backend{ProviderOSM: nb},
		ProviderOSM,
		locCache,
		metrics.NewCollector(prometheus.NewRegistry()),
		zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r, srv
}

func TestResolveHappyPath(t *testing.T) {
	r, _ := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(kathmanduJSON))
	}), nil)

	loc, err := r.Resolve(context.Background(), "Kathmandu, Nepal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.City != "Kathmandu" || loc.Country != "Nepal" {
		t.Errorf("city/country = %q/%q", loc.City, loc.Country)
	}
	if loc.Lat < 27 || loc.Lat > 28 || loc.Lon < 85 || loc.Lon > 86 {
		t.Errorf("coordinates = %v, %v", loc.Lat, loc.Lon)
	}

	// The zone must encode Nepal's +5:45, whatever spelling the lookup
	// table uses for it.
	tz, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		t.Fatalf("returned zone %q does not load: %v", loc.Timezone, err)
	}
	_, offset := time.Date(1990, 1, 1, 10, 30, 0, 0, tz).Zone()
	if offset != 345*60 {
		t.Errorf("zone %q offset = %ds, want 20700", loc.Timezone, offset)
	}
}

func TestResolveNotFound(t *testing.T) {
	r, _ := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[]`))
	}), nil)

	_, err := r.Resolve(context.Background(), "NonExistentPlace12345")
	if code := apperr.CodeOf(err); code != apperr.CodeLocationNotFound {
		t.Errorf("error code = %s, want %s (err: %v)", code, apperr.CodeLocationNotFound, err)
	}
}

func TestResolveRejectsBadCoordinates(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"non-numeric latitude", `[{"lat": "abc", "lon": "85.3"}]`},
		{"latitude out of range", `[{"lat": "95.1", "lon": "85.3"}]`},
		{"longitude out of range", `[{"lat": "27.7", "lon": "-180.5"}]`},
		{"infinite longitude", `[{"lat": "27.7", "lon": "+Inf"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			r, _ := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Write([]byte(body))
			}), nil)

			_, err := r.Resolve(context.Background(), "somewhere")
			if code := apperr.CodeOf(err); code != apperr.CodeInvalidCoordinates {
				t.Errorf("error code = %s, want %s (err: %v)", code, apperr.CodeInvalidCoordinates, err)
			}
		})
	}
}

func TestResolveUnavailableBackend(t *testing.T) {
	r, _ := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}), nil)

	_, err := r.Resolve(context.Background(), "Kathmandu")
	if code := apperr.CodeOf(err); code != apperr.CodeProviderUnavailable {
		t.Errorf("error code = %s, want %s", code, apperr.CodeProviderUnavailable)
	}
}

func TestResolveUsesCache(t *testing.T) {
	var calls int
	r, _ := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		calls++
		w.Write([]byte(kathmanduJSON))
	}), cache.New(time.Hour))

	for i := 0; i < 3; i++ {
		// Whitespace and case differences must hit the same entry.
		if _, err := r.Resolve(context.Background(), "  Kathmandu,   NEPAL "); err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("backend called %d times, want 1", calls)
	}
}

func TestReverseRoundTrip(t *testing.T) {
	r, _ := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/search":
			w.Write([]byte(kathmanduJSON))
		case "/reverse":
			w.Write([]byte(`{"display_name": "Ward 1, Kathmandu, Bagmati Province, Nepal"}`))
		default:
			http.NotFound(w, req)
		}
	}), nil)

	loc, err := r.Resolve(context.Background(), "Kathmandu, Nepal")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	name, err := r.Reverse(context.Background(), loc.Lat, loc.Lon)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if !common.HasAny(name, loc.City) {
		t.Errorf("reverse display name %q does not mention %q", name, loc.City)
	}
}

func TestReverseRejectsOutOfRangeInput(t *testing.T) {
	r, _ := newTestResolver(t, http.NotFoundHandler(), nil)

	_, err := r.Reverse(context.Background(), 91, 0)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Code != apperr.CodeInvalidCoordinates {
		t.Errorf("error = %v, want %s", err, apperr.CodeInvalidCoordinates)
	}
}

func TestNormalizePlace(t *testing.T) {
	if got := NormalizePlace("  Ilam,   NEPAL "); got != "ilam, nepal" {
		t.Errorf("NormalizePlace = %q", got)
	}
}
