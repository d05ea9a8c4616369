package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/astromitra/horoscope-engine/internal/geocode"
)

// AppConfig is the process configuration, read once at startup.
type AppConfig struct {
	Port      string
	LogLevel  string
	LogFormat string

	// External computation provider.
	ProviderBaseURL string
	ProviderToken   string

	// Per-call timeout for each provider call.
	CallTimeout time.Duration

	// Minimum spacing between consecutive provider calls, process-wide.
	ProviderMinSpacing time.Duration

	// Geocoding provider selection. Google needs an API key.
	GeocodeProvider geocode.Provider
	GoogleAPIKey    string

	// Geocode cache retention and eviction cadence.
	GeocodeCacheTTL    time.Duration
	CacheEvictInterval time.Duration

	// Outbound HTTP client timeout; must not undercut CallTimeout.
	OutboundTimeout time.Duration

	// Empty DSN selects the in-memory session store.
	PostgresDSN string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is fine; env vars win either way.
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port:            getenvDefault("PORT", "8080"),
		LogLevel:        getenvDefault("LOG_LEVEL", "info"),
		LogFormat:       getenvDefault("LOG_FORMAT", "json"),
		ProviderBaseURL: getenvDefault("ASTRO_PROVIDER_URL", "https://api.vedastro.example.com"),
		ProviderToken:   os.Getenv("ASTRO_PROVIDER_TOKEN"),
		GoogleAPIKey:    os.Getenv("GOOGLE_GEOCODING_API_KEY"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
	}

	var err error
	if cfg.CallTimeout, err = getenvDuration("PROVIDER_CALL_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProviderMinSpacing, err = getenvDuration("PROVIDER_MIN_SPACING", time.Second); err != nil {
		return nil, err
	}
	if cfg.GeocodeCacheTTL, err = getenvDuration("GEOCODE_CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.CacheEvictInterval, err = getenvDuration("GEOCODE_CACHE_EVICT_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OutboundTimeout, err = getenvDuration("OUTBOUND_HTTP_TIMEOUT", 35*time.Second); err != nil {
		return nil, err
	}

	switch p := geocode.Provider(getenvDefault("GEOCODE_PROVIDER", string(geocode.ProviderOSM))); p {
	case geocode.ProviderOSM, geocode.ProviderGoogle:
		cfg.GeocodeProvider = p
	default:
		return nil, fmt.Errorf("invalid GEOCODE_PROVIDER %q", p)
	}

	if cfg.GeocodeProvider == geocode.ProviderGoogle && cfg.GoogleAPIKey == "" {
		return nil, fmt.Errorf("GEOCODE_PROVIDER=google requires GOOGLE_GEOCODING_API_KEY")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
