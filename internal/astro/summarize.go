package astro

import (
	"sort"
	"strings"
)

// dashaLevelNames are the five levels of the current period chain, outermost
// first. The summary always carries all five.
var dashaLevelNames = [5]string{
	"mahadasha",
	"antardasha",
	"pratyantardasha",
	"sookshmadasha",
	"pranadasha",
}

const maxYogas = 5

// Summarize projects the three raw payloads into the fixed summary shape.
// It is pure and total: nil payloads and missing nested fields resolve to
// sentinels, never panics. Yogas are truncated to the five highest strengths
// with provider order preserved among ties.
func Summarize(chart *ChartPayload, period *PeriodPayload, almanac *AlmanacPayload) HoroscopeSummary {
	s := HoroscopeSummary{
		Ascendant: unknownPosition(),
		Moon:      unknownPosition(),
		Sun:       unknownPosition(),
	}

	if chart != nil {
		s.Ascendant = positionOf(chart.Ascendant)
		s.Moon = positionOf(findBody(chart.Planets, "moon"))
		s.Sun = positionOf(findBody(chart.Planets, "sun"))
		s.Yogas = strongestYogas(chart.Yogas)
		s.Charts = chartList(chart.Charts)
	}

	s.DashaChain = dashaChain(period)
	s.Panchang = panchang(almanac)

	return s
}

func unknownPosition() BodyPosition {
	return BodyPosition{Sign: Unknown, Nakshatra: Unknown}
}

func positionOf(b *BodyDetail) BodyPosition {
	pos := unknownPosition()
	if b == nil {
		return pos
	}
	if b.Sign != nil && b.Sign.Name != "" {
		pos.Sign = b.Sign.Name
	}
	if b.Degree != nil {
		pos.Degree = *b.Degree
	}
	if b.Nakshatra != nil && b.Nakshatra.Name != "" {
		pos.Nakshatra = b.Nakshatra.Name
	}
	return pos
}

func findBody(bodies []BodyDetail, name string) *BodyDetail {
	for i := range bodies {
		if strings.EqualFold(bodies[i].Name, name) {
			return &bodies[i]
		}
	}
	return nil
}

func strongestYogas(yogas []Yoga) []YogaSummary {
	if len(yogas) == 0 {
		return nil
	}

	out := make([]YogaSummary, 0, len(yogas))
	for _, y := range yogas {
		name := y.Name
		if name == "" {
			name = Unknown
		}
		var strength float64
		if y.Strength != nil {
			strength = *y.Strength
		}
		out = append(out, YogaSummary{Name: name, Strength: strength})
	}

	// Stable keeps the provider's ordering among equal strengths.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Strength > out[j].Strength
	})

	if len(out) > maxYogas {
		out = out[:maxYogas]
	}
	return out
}

func chartList(charts []DivisionalChart) []ChartInfo {
	if len(charts) == 0 {
		return nil
	}
	out := make([]ChartInfo, 0, len(charts))
	for _, c := range charts {
		info := ChartInfo{
			Type:        c.Type,
			Name:        c.Name,
			PlanetCount: len(c.Planets),
		}
		if info.Type == "" {
			info.Type = Unknown
		}
		if info.Name == "" {
			info.Name = Unknown
		}
		out = append(out, info)
	}
	return out
}

func dashaChain(period *PeriodPayload) []DashaLevel {
	chain := make([]DashaLevel, len(dashaLevelNames))
	for i, name := range dashaLevelNames {
		chain[i] = DashaLevel{Name: name, Lord: Unknown}
		if period == nil || i >= len(period.Levels) {
			continue
		}
		lvl := period.Levels[i]
		if lvl.Lord != nil && lvl.Lord.Name != "" {
			chain[i].Lord = lvl.Lord.Name
		}
	}
	return chain
}

func panchang(almanac *AlmanacPayload) PanchangSummary {
	p := PanchangSummary{Tithi: Unknown, Nakshatra: Unknown, Yoga: Unknown, Karana: Unknown}
	if almanac == nil {
		return p
	}
	if almanac.Tithi != nil && almanac.Tithi.Name != "" {
		p.Tithi = almanac.Tithi.Name
	}
	if almanac.Nakshatra != nil && almanac.Nakshatra.Name != "" {
		p.Nakshatra = almanac.Nakshatra.Name
	}
	if almanac.Yoga != nil && almanac.Yoga.Name != "" {
		p.Yoga = almanac.Yoga.Name
	}
	if almanac.Karana != nil && almanac.Karana.Name != "" {
		p.Karana = almanac.Karana.Name
	}
	return p
}
