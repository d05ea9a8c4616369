// Package timeres converts local wall-clock birth readings into UTC instants
// using the historical rules of the birth place's IANA zone.
package timeres

import (
	"fmt"
	"time"
	// Embed the zone database so offsets do not depend on the host tzdata.
	_ "time/tzdata"

	"github.com/astromitra/horoscope-engine/internal/apperr"
	"github.com/astromitra/horoscope-engine/internal/astro"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// Resolver implements astro.InstantResolver. It is stateless.
type Resolver struct{}

// New creates a Resolver.
func New() Resolver {
	return Resolver{}
}

// ResolveInstant interprets date ("YYYY-MM-DD") and clock ("HH:MM") as a
// local reading in zone and returns the UTC instant together with the zone
// offset that applied on that date. A zone with no DST history yields the
// same offset for any date; a DST-observing zone yields the offset in force
// on the given date, not the offset now.
func (Resolver) ResolveInstant(date, clock, zone string) (astro.ResolvedInstant, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return astro.ResolvedInstant{}, apperr.Wrap(apperr.CodeInvalidCalendar,
			fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date), err)
	}
	wall, err := time.Parse(clockLayout, clock)
	if err != nil {
		return astro.ResolvedInstant{}, apperr.Wrap(apperr.CodeInvalidCalendar,
			fmt.Sprintf("invalid time %q, expected HH:MM", clock), err)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return astro.ResolvedInstant{}, apperr.Wrap(apperr.CodeInvalidCalendar,
			fmt.Sprintf("unknown timezone %q", zone), err)
	}

	local := time.Date(day.Year(), day.Month(), day.Day(), wall.Hour(), wall.Minute(), 0, 0, loc)
	_, offsetSeconds := local.Zone()

	return astro.ResolvedInstant{
		UTC:           local.UTC(),
		OffsetMinutes: offsetSeconds / 60,
	}, nil
}
