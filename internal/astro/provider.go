package astro

import (
	"context"
)

// ProviderClient abstracts the external computation service. The three calls
// are independent; each one carries its own timeout via ctx. Implementations
// must not interpret free text, only ComputationRequest fields.
type ProviderClient interface {
	Name() string
	Chart(ctx context.Context, req ComputationRequest) (*ChartPayload, error)
	Period(ctx context.Context, req ComputationRequest) (*PeriodPayload, error)
	Almanac(ctx context.Context, req ComputationRequest) (*AlmanacPayload, error)
}

// Limiter enforces minimum spacing between consecutive calls under a key.
// Wait blocks until the call may proceed or ctx is done.
type Limiter interface {
	Wait(ctx context.Context, key string) error
}

// LocationResolver turns a free-text place into coordinates and a zone.
type LocationResolver interface {
	Resolve(ctx context.Context, place string) (ResolvedLocation, error)
}

// InstantResolver converts a local calendar reading in an IANA zone into a
// UTC instant with the offset valid at that instant.
type InstantResolver interface {
	ResolveInstant(date, clock, zone string) (ResolvedInstant, error)
}

// SessionStore is the persistence contract the orchestrator drives. The core
// never deletes or lists sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, d BirthDescriptor) (string, error)
	UpdateSession(ctx context.Context, id string, patch SessionPatch) error
	GetSession(ctx context.Context, id string) (Session, error)
}

// ProviderPayload bundles the three raw results as returned by the provider.
// It is persisted verbatim so summaries stay recomputable.
type ProviderPayload struct {
	Chart   *ChartPayload   `json:"chart,omitempty"`
	Period  *PeriodPayload  `json:"period,omitempty"`
	Almanac *AlmanacPayload `json:"almanac,omitempty"`
}

// NameRef is a nested object of which only the name matters to the summary.
type NameRef struct {
	Name string `json:"name"`
}

// BodyDetail is the provider's placement record for one body. Every nested
// field is optional; the summarizer resolves absences to sentinels.
type BodyDetail struct {
	Name      string   `json:"name"`
	Sign      *NameRef `json:"sign,omitempty"`
	Degree    *float64 `json:"degree,omitempty"`
	Nakshatra *NameRef `json:"nakshatra,omitempty"`
}

// DivisionalChart is one chart variant (rasi, navamsa, ...) in the payload.
type DivisionalChart struct {
	Type    string       `json:"type"`
	Name    string       `json:"name"`
	Planets []BodyDetail `json:"planets,omitempty"`
}

// Yoga is a secondary pattern the provider detected, with optional strength.
type Yoga struct {
	Name     string   `json:"name"`
	Strength *float64 `json:"strength,omitempty"`
}

// ChartPayload is the raw natal-chart result.
type ChartPayload struct {
	Ascendant *BodyDetail       `json:"ascendant,omitempty"`
	Planets   []BodyDetail      `json:"planets,omitempty"`
	Charts    []DivisionalChart `json:"charts,omitempty"`
	Yogas     []Yoga            `json:"yogas,omitempty"`
}

// PeriodLevel is one level of the provider's current dasha chain.
type PeriodLevel struct {
	Name string   `json:"name"`
	Lord *NameRef `json:"lord,omitempty"`
}

// PeriodPayload is the raw Vimshottari period result.
type PeriodPayload struct {
	Levels []PeriodLevel `json:"levels,omitempty"`
}

// AlmanacPayload is the raw panchang result for the birth date.
type AlmanacPayload struct {
	Tithi     *NameRef `json:"tithi,omitempty"`
	Nakshatra *NameRef `json:"nakshatra,omitempty"`
	Yoga      *NameRef `json:"yoga,omitempty"`
	Karana    *NameRef `json:"karana,omitempty"`
}
