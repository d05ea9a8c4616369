package astro

import (
	"time"
)

// Unknown is the sentinel used wherever a provider payload is missing a field
// the summary needs. Summaries always carry it instead of empty strings.
const Unknown = "unknown"

// Ayanamsa selects the reference-point convention passed through to the
// computation provider.
type Ayanamsa int

const (
	AyanamsaLahiri       Ayanamsa = 1
	AyanamsaRaman        Ayanamsa = 2
	AyanamsaKrishnamurti Ayanamsa = 3
)

// Valid reports whether a is one of the supported variants.
func (a Ayanamsa) Valid() bool {
	return a >= AyanamsaLahiri && a <= AyanamsaKrishnamurti
}

// Name returns the provider-facing name of the variant.
func (a Ayanamsa) Name() string {
	switch a {
	case AyanamsaLahiri:
		return "lahiri"
	case AyanamsaRaman:
		return "raman"
	case AyanamsaKrishnamurti:
		return "krishnamurti"
	default:
		return Unknown
	}
}

// BirthDescriptor is the immutable input of one computation attempt.
// Date is "YYYY-MM-DD", Time is "HH:MM", both read as local wall clock at
// the described place.
type BirthDescriptor struct {
	Name     string   `json:"name"`
	Date     string   `json:"date"`
	Time     string   `json:"time"`
	Location string   `json:"location"`
	Ayanamsa Ayanamsa `json:"ayanamsa"`
}

// ResolvedLocation is the geocoded form of the free-text place.
type ResolvedLocation struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"` // IANA zone name, e.g. Asia/Kathmandu
	City        string  `json:"city"`
	Country     string  `json:"country"`
	DisplayName string  `json:"displayName"`
}

// ResolvedInstant is the birth moment in UTC together with the zone offset
// that was in force at that moment (not the zone's current offset).
type ResolvedInstant struct {
	UTC           time.Time `json:"utc"`
	OffsetMinutes int       `json:"offsetMinutes"`
}

// ComputationRequest is the only input the provider client ever sees.
// Free text never crosses this boundary.
type ComputationRequest struct {
	Location ResolvedLocation `json:"location"`
	Instant  ResolvedInstant  `json:"instant"`
	Ayanamsa Ayanamsa         `json:"ayanamsa"`
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusCreated   Status = "created"
	StatusResolving Status = "resolving"
	StatusComputing Status = "computing"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Stage names a step of the orchestration state machine. Failed sessions
// record the stage the failure happened in.
type Stage string

const (
	StageGeocoding      Stage = "Geocoding"
	StageTimeResolving  Stage = "TimeResolving"
	StageCallingChart   Stage = "CallingChart"
	StageCallingPeriod  Stage = "CallingPeriod"
	StageCallingAlmanac Stage = "CallingAlmanac"
	StageSummarizing    Stage = "Summarizing"
)

// Session is the persisted record of one computation attempt. It is created
// once location and instant resolution succeed and mutated only by the
// orchestrator.
type Session struct {
	ID           string            `json:"id"`
	Descriptor   BirthDescriptor   `json:"descriptor"`
	Location     *ResolvedLocation `json:"location,omitempty"`
	Instant      *ResolvedInstant  `json:"instant,omitempty"`
	Status       Status            `json:"status"`
	Summary      *HoroscopeSummary `json:"summary,omitempty"`
	RawPayload   *ProviderPayload  `json:"rawPayload,omitempty"`
	FailureStage Stage             `json:"failureStage,omitempty"`
	FailureCause string            `json:"failureCause,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// SessionPatch is a partial update applied to a session. Nil fields are
// left untouched.
type SessionPatch struct {
	Status       *Status
	Location     *ResolvedLocation
	Instant      *ResolvedInstant
	Summary      *HoroscopeSummary
	RawPayload   *ProviderPayload
	FailureStage *Stage
	FailureCause *string
}

// Apply copies the non-nil patch fields onto s.
func (p SessionPatch) Apply(s *Session) {
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Location != nil {
		s.Location = p.Location
	}
	if p.Instant != nil {
		s.Instant = p.Instant
	}
	if p.Summary != nil {
		s.Summary = p.Summary
	}
	if p.RawPayload != nil {
		s.RawPayload = p.RawPayload
	}
	if p.FailureStage != nil {
		s.FailureStage = *p.FailureStage
	}
	if p.FailureCause != nil {
		s.FailureCause = *p.FailureCause
	}
}

// BodyPosition is the summarized placement of the ascendant or a planet.
type BodyPosition struct {
	Sign      string  `json:"sign"`
	Degree    float64 `json:"degree"`
	Nakshatra string  `json:"nakshatra"`
}

// DashaLevel is one level of the current Vimshottari period chain.
type DashaLevel struct {
	Name string `json:"name"` // mahadasha, antardasha, ...
	Lord string `json:"lord"`
}

// YogaSummary is one secondary pattern with its computed strength.
type YogaSummary struct {
	Name     string  `json:"name"`
	Strength float64 `json:"strength"`
}

// ChartInfo describes one divisional chart present in the payload.
type ChartInfo struct {
	Type        string `json:"type"` // D1, D9, ...
	Name        string `json:"name"`
	PlanetCount int    `json:"planetCount"`
}

// PanchangSummary is the daily almanac record for the birth date.
type PanchangSummary struct {
	Tithi     string `json:"tithi"`
	Nakshatra string `json:"nakshatra"`
	Yoga      string `json:"yoga"`
	Karana    string `json:"karana"`
}

// HoroscopeSummary is the fixed-shape projection of the raw provider
// payloads. It is always recomputable from the raw payload and never edited
// by hand.
type HoroscopeSummary struct {
	Ascendant  BodyPosition    `json:"ascendant"`
	Moon       BodyPosition    `json:"moon"`
	Sun        BodyPosition    `json:"sun"`
	DashaChain []DashaLevel    `json:"dashaChain"` // always exactly 5 levels
	Yogas      []YogaSummary   `json:"yogas"`      // at most 5, strongest first
	Charts     []ChartInfo     `json:"charts"`
	Panchang   PanchangSummary `json:"panchang"`
}
