package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/astromitra/horoscope-engine/internal/astro"
)

func TestCreateUpdateGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	d := astro.BirthDescriptor{
		Name: "Asha", Date: "1990-01-01", Time: "10:30",
		Location: "Kathmandu, Nepal", Ayanamsa: astro.AyanamsaLahiri,
	}
	id, err := s.CreateSession(ctx, d)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != astro.StatusCreated || got.Descriptor.Name != "Asha" {
		t.Errorf("fresh session = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}

	status := astro.StatusComputing
	loc := &astro.ResolvedLocation{Lat: 27.7, Lon: 85.3, Timezone: "Asia/Kathmandu"}
	inst := &astro.ResolvedInstant{OffsetMinutes: 345}
	if err := s.UpdateSession(ctx, id, astro.SessionPatch{
		Status:   &status,
		Location: loc,
		Instant:  inst,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err = s.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Status != astro.StatusComputing {
		t.Errorf("status = %s, want %s", got.Status, astro.StatusComputing)
	}
	if got.Location == nil || got.Location.Timezone != "Asia/Kathmandu" {
		t.Errorf("location = %+v", got.Location)
	}
	if got.Instant == nil || got.Instant.OffsetMinutes != 345 {
		t.Errorf("instant = %+v", got.Instant)
	}
	// Untouched fields survive a partial patch.
	if got.Descriptor.Location != "Kathmandu, Nepal" {
		t.Errorf("descriptor mutated: %+v", got.Descriptor)
	}
}

func TestUnknownIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.GetSession(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get unknown = %v, want ErrNotFound", err)
	}
	if err := s.UpdateSession(ctx, "nope", astro.SessionPatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update unknown = %v, want ErrNotFound", err)
	}
}

func TestConcurrentSessionsAreIndependent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := s.CreateSession(ctx, astro.BirthDescriptor{Name: "n"})
			if err != nil {
				t.Errorf("create %d: %v", i, err)
				return
			}
			ids[i] = id
			status := astro.StatusSucceeded
			if err := s.UpdateSession(ctx, id, astro.SessionPatch{Status: &status}); err != nil {
				t.Errorf("update %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate session id %s", id)
		}
		seen[id] = true
	}
}
