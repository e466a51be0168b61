package cache

import (
	"fmt"
	"testing"

	"github.com/siddarth24/joblo/models"
)

func TestKey_Deterministic(t *testing.T) {
	a := Key("https://example.com/job/1", "llama-3.3-70b-versatile")
	b := Key("https://example.com/job/1", "llama-3.3-70b-versatile")
	if a != b {
		t.Error("identical inputs produced different keys")
	}

	if a == Key("https://example.com/job/2", "llama-3.3-70b-versatile") {
		t.Error("different URLs produced the same key")
	}
	if a == Key("https://example.com/job/1", "other-model") {
		t.Error("different models produced the same key")
	}
}

func TestCache_SetAndGet(t *testing.T) {
	c := New(10)
	rec := models.Success(map[string]any{"title": "Engineer"})
	key := Key("https://example.com/job/1", "m")

	c.Set(key, rec)

	got, hit := c.Get(key, 60_000)
	if !hit {
		t.Fatal("expected a cache hit")
	}
	fields, ok := got.Fields()
	if !ok || fields["title"] != "Engineer" {
		t.Errorf("cached record = %v", got.AsMap())
	}
}

func TestCache_MaxAgeZeroDisablesLookup(t *testing.T) {
	c := New(10)
	key := Key("u", "m")
	c.Set(key, models.Success(map[string]any{"a": 1}))

	if _, hit := c.Get(key, 0); hit {
		t.Error("maxAge 0 must bypass the cache")
	}
	if _, hit := c.Get(key, -1); hit {
		t.Error("negative maxAge must bypass the cache")
	}
}

func TestCache_ErrorRecordsNotCached(t *testing.T) {
	c := New(10)
	key := Key("u", "m")

	c.Set(key, models.Failure("Page navigation timed out."))

	if _, hit := c.Get(key, 60_000); hit {
		t.Error("error records must not be cached")
	}
	if c.Len() != 0 {
		t.Errorf("cache has %d entries, want 0", c.Len())
	}
}

func TestCache_CapacityEviction(t *testing.T) {
	c := New(3)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("key-%d", i), models.Success(map[string]any{"i": i}))
	}
	if c.Len() > 3 {
		t.Errorf("cache has %d entries, want <= 3", c.Len())
	}
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	c := New(10)
	if _, hit := c.Get("absent", 60_000); hit {
		t.Error("unknown key must miss")
	}
}
