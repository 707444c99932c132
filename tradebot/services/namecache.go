package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/snowflake/v2"
	lru "github.com/hashicorp/golang-lru"
)

const (
	nameCacheSize   = 2048
	nameCacheExpiry = 20 * time.Minute
)

type cachedName struct {
	name      string
	timestamp time.Time
}

// NameCache resolves Discord user IDs to display names with a bounded
// expiring cache, so leaderboards and digests do not hammer the user
// endpoint.
type NameCache struct {
	cache  *lru.Cache
	expiry time.Duration
	fetch  func(id snowflake.ID) (string, error)
}

func NewNameCache(client bot.Client) *NameCache {
	cache, _ := lru.New(nameCacheSize)
	c := &NameCache{
		cache:  cache,
		expiry: nameCacheExpiry,
	}
	c.SetClient(client)
	return c
}

func (c *NameCache) SetClient(client bot.Client) {
	c.fetch = func(id snowflake.ID) (string, error) {
		user, err := client.Rest().GetUser(id)
		if err != nil {
			return "", err
		}
		if user.GlobalName != nil && *user.GlobalName != "" {
			return *user.GlobalName, nil
		}
		return user.Username, nil
	}
}

// DisplayName resolves a user ID to a name, fetching and caching on miss.
// When the lookup fails the raw ID is returned so callers always have
// something printable.
func (c *NameCache) DisplayName(ctx context.Context, discordID string) string {
	if cached, ok := c.cache.Get(discordID); ok {
		entry := cached.(cachedName)
		if time.Since(entry.timestamp) < c.expiry {
			return entry.name
		}
		c.cache.Remove(discordID)
	}

	id, err := snowflake.Parse(discordID)
	if err != nil {
		return discordID
	}

	name, err := c.fetch(id)
	if err != nil {
		slog.Debug("Failed to resolve display name",
			slog.String("type", "sys"),
			slog.String("user_id", discordID),
			slog.Any("error", err),
		)
		return discordID
	}

	c.cache.Add(discordID, cachedName{name: name, timestamp: time.Now()})
	return name
}
