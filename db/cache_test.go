package db

import (
	"sync"
	"testing"

	"github.com/hoshibot/hoshi/guildmodels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuildCache_PutGetInvalidate(t *testing.T) {
	cache := newGuildCache()
	assert.Nil(t, cache.get("guild1"))

	guild := guildmodels.DefaultGuild("guild1")
	cache.put(&guild)
	cached := cache.get("guild1")
	require.NotNil(t, cached)
	assert.Equal(t, &guild, cached)
	assert.NotSame(t, &guild, cached, "the cache must hand out copies, never the stored aggregate")

	cache.invalidate("guild1")
	assert.Nil(t, cache.get("guild1"), "invalidation must evict the entry so the next read goes to the database")
}

func TestGuildCache_ServedAggregatesAreIndependent(t *testing.T) {
	cache := newGuildCache()
	guild := guildmodels.DefaultGuild("guild1")
	require.NoError(t, guild.EnsureRule("chan1", "msg1").AddBinding("⭐", "R1"))
	cache.put(&guild)

	first := cache.get("guild1")
	first.EnsureRule("chan2", "msg2")
	require.NoError(t, first.RuleForMessage("msg1").AddBinding("two", "R2"))

	second := cache.get("guild1")
	assert.Len(t, second.ReactionRules, 1, "mutating a served aggregate must not leak into the cached state")
	assert.Len(t, second.RuleForMessage("msg1").Bindings, 1)

	//Mutating the aggregate that was put must not leak either
	guild.AdminRoles = append(guild.AdminRoles, "A1")
	assert.Empty(t, cache.get("guild1").AdminRoles)
}

func TestGuildCache_ConcurrentMutationAndReadDoNotRace(t *testing.T) {
	cache := newGuildCache()
	guild := guildmodels.DefaultGuild("guild1")
	require.NoError(t, guild.EnsureRule("chan1", "msg1").AddBinding("⭐", "R1"))
	cache.put(&guild)

	//One side edits the rules on its served aggregate while the other reads rules
	//from its own, as the command surface and reaction handlers do concurrently
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			served := cache.get("guild1")
			served.EnsureRule("chan2", "msg2")
		}()
		go func() {
			defer wg.Done()
			served := cache.get("guild1")
			rule := served.RuleForMessage("msg1")
			assert.NotNil(t, rule)
		}()
	}
	wg.Wait()
}

func TestGuildCache_InvalidateUnknownGuildIsHarmless(t *testing.T) {
	cache := newGuildCache()
	cache.invalidate("guild1")
	assert.Nil(t, cache.get("guild1"))
}
