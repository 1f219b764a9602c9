package guildmodels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRolePolicy(t *testing.T) {
	for _, name := range []string{"normal", "unique", "verify", "drop", "reversed", "limit", "binding"} {
		policy, err := ParseRolePolicy(name)
		require.NoError(t, err)
		assert.Equal(t, RolePolicy(name), policy)
	}

	_, err := ParseRolePolicy("bogus")
	assert.Error(t, err)
}

func TestRule_AddBindingRejectsDuplicateEmoji(t *testing.T) {
	rule := ReactionRoleRule{MessageID: "msg1", Policy: PolicyNormal}

	require.NoError(t, rule.AddBinding("⭐", "R1"))
	err := rule.AddBinding("⭐", "R2")
	assert.Error(t, err, "an emoji may only be bound once per rule")
	assert.Len(t, rule.Bindings, 1)
}

func TestRule_RemoveBindingWildcards(t *testing.T) {
	rule := ReactionRoleRule{MessageID: "msg1", Policy: PolicyNormal}
	require.NoError(t, rule.AddBinding("one", "R1"))
	require.NoError(t, rule.AddBinding("two", "R2"))
	require.NoError(t, rule.AddBinding("three", "R2"))

	assert.Equal(t, 1, rule.RemoveBinding("one", ""))
	assert.Equal(t, 2, rule.RemoveBinding("", "R2"), "an empty emoji matches every binding for the role")
	assert.Empty(t, rule.Bindings)
}

func TestRule_SetPolicyForcesBindingLimitToOne(t *testing.T) {
	rule := ReactionRoleRule{MessageID: "msg1", Policy: PolicyNormal}

	require.NoError(t, rule.SetPolicy(PolicyBinding, 7))
	assert.Equal(t, 1, rule.Limit)
	assert.Equal(t, 1, rule.EffectiveLimit())

	require.NoError(t, rule.SetPolicy(PolicyLimit, 3))
	assert.Equal(t, 3, rule.Limit)

	assert.Error(t, rule.SetPolicy(PolicyLimit, -1))
	assert.Error(t, rule.SetPolicy(RolePolicy("bogus"), 0))
}

func TestGuild_EnsureRuleCreatesOnFirstUse(t *testing.T) {
	guild := DefaultGuild("guild1")

	rule := guild.EnsureRule("chan1", "msg1")
	require.NotNil(t, rule)
	assert.Equal(t, PolicyNormal, rule.Policy)

	again := guild.EnsureRule("chan1", "msg1")
	assert.Same(t, rule, again)
	assert.Len(t, guild.ReactionRules, 1)
}

func TestGuild_CloneIsDeep(t *testing.T) {
	guild := DefaultGuild("guild1")
	guild.AdminRoles = []string{"A1"}
	rule := guild.EnsureRule("chan1", "msg1")
	require.NoError(t, rule.AddBinding("⭐", "R1"))

	clone := guild.Clone()
	require.Equal(t, &guild, clone)

	clone.AdminRoles = append(clone.AdminRoles, "A2")
	clone.EnsureRule("chan2", "msg2")
	require.NoError(t, clone.RuleForMessage("msg1").AddBinding("two", "R2"))

	assert.Equal(t, []string{"A1"}, guild.AdminRoles)
	assert.Len(t, guild.ReactionRules, 1, "a rule added to the clone must not appear in the original")
	assert.Len(t, guild.RuleForMessage("msg1").Bindings, 1, "a binding added to the clone must not appear in the original")
}

func TestGuild_EmptyRuleIsDeleted(t *testing.T) {
	guild := DefaultGuild("guild1")
	rule := guild.EnsureRule("chan1", "msg1")
	require.NoError(t, rule.AddBinding("one", "R1"))
	require.NoError(t, rule.AddBinding("two", "R2"))

	assert.Equal(t, 1, guild.RemoveRuleBindings("msg1", "one", ""))
	assert.NotNil(t, guild.RuleForMessage("msg1"))

	assert.Equal(t, 1, guild.RemoveRuleBindings("msg1", "two", ""))
	assert.Nil(t, guild.RuleForMessage("msg1"), "a rule with no bindings left must be deleted")
}

func TestStarboardConfig_Enabled(t *testing.T) {
	assert.False(t, (&StarboardConfig{}).Enabled())
	assert.False(t, (&StarboardConfig{ChannelID: "chan1"}).Enabled())
	assert.False(t, (&StarboardConfig{StarThreshold: 3}).Enabled())
	assert.True(t, (&StarboardConfig{ChannelID: "chan1", StarThreshold: 3}).Enabled())
}
