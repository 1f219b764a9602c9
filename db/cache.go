package db

import (
	"sync"

	"github.com/hoshibot/hoshi/guildmodels"
)

//guildCache is a cache-aside store of guild aggregates keyed by guild id. Reads go
//through the cache; every write to a guild aggregate must invalidate its entry, which
//UpdateGuild and DeleteGuild do as part of the store contract. Entries are stored and
//served as deep copies, so callers may mutate the aggregate they hold without racing
//concurrent readers or poisoning the cached state.
type guildCache struct {
	mu      sync.RWMutex
	entries map[string]*guildmodels.GuildConfig
}

func newGuildCache() *guildCache {
	return &guildCache{
		entries: make(map[string]*guildmodels.GuildConfig),
	}
}

func (c *guildCache) get(gid string) *guildmodels.GuildConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry := c.entries[gid]
	if entry == nil {
		return nil
	}
	return entry.Clone()
}

func (c *guildCache) put(guild *guildmodels.GuildConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[guild.DiscordGID] = guild.Clone()
}

func (c *guildCache) invalidate(gid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, gid)
}
