package cache

import (
	"testing"
	"time"

	"github.com/astromitra/horoscope-engine/internal/astro"
)

func TestSetGetInvalidate(t *testing.T) {
	c := New(time.Hour)
	loc := astro.ResolvedLocation{Lat: 27.7, Lon: 85.3, Timezone: "Asia/Kathmandu", City: "Kathmandu"}

	if _, ok := c.Get("kathmandu, nepal"); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Set("kathmandu, nepal", loc)
	got, ok := c.Get("kathmandu, nepal")
	if !ok || got.City != "Kathmandu" {
		t.Fatalf("get = %+v, %v", got, ok)
	}

	c.Invalidate("kathmandu, nepal")
	if _, ok := c.Get("kathmandu, nepal"); ok {
		t.Fatal("entry survived invalidation")
	}
}

func TestExpiry(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Set("x", astro.ResolvedLocation{City: "X"})

	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("x"); ok {
		t.Error("expired entry still served")
	}
	if n := c.EvictExpired(); n != 1 {
		t.Errorf("evicted %d entries, want 1", n)
	}
	if c.Len() != 0 {
		t.Errorf("len = %d after eviction, want 0", c.Len())
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := New(0)
	c.Set("x", astro.ResolvedLocation{City: "X"})

	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Get("x"); !ok {
		t.Error("entry expired with ttl disabled")
	}
	if n := c.EvictExpired(); n != 0 {
		t.Errorf("evicted %d entries with ttl disabled", n)
	}
}
