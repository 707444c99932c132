package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	lru "github.com/hashicorp/golang-lru"
)

func newTestNameCache(fetch func(id snowflake.ID) (string, error)) *NameCache {
	cache, _ := lru.New(nameCacheSize)
	return &NameCache{
		cache:  cache,
		expiry: nameCacheExpiry,
		fetch:  fetch,
	}
}

func TestDisplayName_CachesFetches(t *testing.T) {
	calls := 0
	c := newTestNameCache(func(snowflake.ID) (string, error) {
		calls++
		return "Alice", nil
	})

	ctx := context.Background()
	if got := c.DisplayName(ctx, "123"); got != "Alice" {
		t.Errorf("DisplayName = %q, want Alice", got)
	}
	if got := c.DisplayName(ctx, "123"); got != "Alice" {
		t.Errorf("cached DisplayName = %q, want Alice", got)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
}

func TestDisplayName_ExpiredEntryRefetches(t *testing.T) {
	calls := 0
	c := newTestNameCache(func(snowflake.ID) (string, error) {
		calls++
		return "Alice", nil
	})

	ctx := context.Background()
	c.DisplayName(ctx, "123")

	// Age the entry past the expiry window.
	c.cache.Add("123", cachedName{name: "Alice", timestamp: time.Now().Add(-21 * time.Minute)})

	c.DisplayName(ctx, "123")
	if calls != 2 {
		t.Errorf("fetch called %d times after expiry, want 2", calls)
	}
}

func TestDisplayName_FallsBackToID(t *testing.T) {
	c := newTestNameCache(func(snowflake.ID) (string, error) {
		return "", errors.New("unknown user")
	})

	if got := c.DisplayName(context.Background(), "456"); got != "456" {
		t.Errorf("DisplayName on failure = %q, want raw ID", got)
	}
	if got := c.DisplayName(context.Background(), "not-a-snowflake"); got != "not-a-snowflake" {
		t.Errorf("DisplayName on bad ID = %q, want input back", got)
	}
}
