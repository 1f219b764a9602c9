package bot

import (
	"errors"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/hoshibot/hoshi/guildmodels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//fakeRolePlatform records role and reaction calls and tracks member role state so
//round-trip properties can be asserted against it.
type fakeRolePlatform struct {
	mu          sync.Mutex
	guildRoles  []string
	memberRoles map[string]bool
	addCalls    [][]string
	removeCalls [][]string
	retractions []string
	memberErr   error
}

func newFakeRolePlatform(guildRoles []string, held ...string) *fakeRolePlatform {
	member := make(map[string]bool)
	for _, roleID := range held {
		member[roleID] = true
	}
	return &fakeRolePlatform{
		guildRoles:  guildRoles,
		memberRoles: member,
	}
}

func (f *fakeRolePlatform) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var roles []*discordgo.Role
	for _, id := range f.guildRoles {
		roles = append(roles, &discordgo.Role{ID: id, Name: "role-" + id})
	}
	return roles, nil
}

func (f *fakeRolePlatform) MemberRoles(guildID, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.memberErr != nil {
		return nil, f.memberErr
	}
	var roles []string
	for id := range f.memberRoles {
		roles = append(roles, id)
	}
	return roles, nil
}

func (f *fakeRolePlatform) AddMemberRoles(guildID, userID string, roleIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls = append(f.addCalls, roleIDs)
	for _, id := range roleIDs {
		f.memberRoles[id] = true
	}
	return nil
}

func (f *fakeRolePlatform) RemoveMemberRoles(guildID, userID string, roleIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls = append(f.removeCalls, roleIDs)
	for _, id := range roleIDs {
		delete(f.memberRoles, id)
	}
	return nil
}

func (f *fakeRolePlatform) RemoveUserReaction(channelID, messageID, emoji, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retractions = append(f.retractions, emoji)
	return nil
}

func (f *fakeRolePlatform) heldRoles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var roles []string
	for id := range f.memberRoles {
		roles = append(roles, id)
	}
	return roles
}

func testRule(policy guildmodels.RolePolicy, limit int, bindings ...guildmodels.EmojiBinding) *guildmodels.ReactionRoleRule {
	return &guildmodels.ReactionRoleRule{
		ChannelID: "chan1",
		MessageID: "msg1",
		Policy:    policy,
		Limit:     limit,
		Bindings:  bindings,
	}
}

func reactionEvent(emoji string, direction ReactionDirection) ReactionEvent {
	return ReactionEvent{
		GuildID:   "guild1",
		ChannelID: "chan1",
		MessageID: "msg1",
		Emoji:     emoji,
		UserID:    "user1",
		Direction: direction,
	}
}

func TestEngine_NoRuleIsANoop(t *testing.T) {
	platform := newFakeRolePlatform([]string{"R1"})
	engine := NewReactionRoleEngine(platform)

	err := engine.HandleReaction(reactionEvent("⭐", ReactionAdded), nil)
	require.NoError(t, err)
	assert.Empty(t, platform.addCalls)
	assert.Empty(t, platform.removeCalls)
	assert.Empty(t, platform.retractions)
}

func TestEngine_UnboundEmojiIsANoop(t *testing.T) {
	platform := newFakeRolePlatform([]string{"R1"})
	engine := NewReactionRoleEngine(platform)
	rule := testRule(guildmodels.PolicyNormal, 0, guildmodels.EmojiBinding{Emoji: "⭐", RoleID: "R1"})

	err := engine.HandleReaction(reactionEvent("🎉", ReactionAdded), rule)
	require.NoError(t, err)
	assert.Empty(t, platform.addCalls)
	assert.Empty(t, platform.removeCalls)
}

func TestEngine_DeletedRoleIsANoop(t *testing.T) {
	//R1 is bound but no longer exists in the guild
	platform := newFakeRolePlatform([]string{"R2"})
	engine := NewReactionRoleEngine(platform)
	rule := testRule(guildmodels.PolicyNormal, 0, guildmodels.EmojiBinding{Emoji: "⭐", RoleID: "R1"})

	err := engine.HandleReaction(reactionEvent("⭐", ReactionAdded), rule)
	require.NoError(t, err)
	assert.Empty(t, platform.addCalls)
	assert.Empty(t, platform.removeCalls)
}

func TestEngine_MemberLookupErrorPropagates(t *testing.T) {
	platform := newFakeRolePlatform([]string{"R1"})
	platform.memberErr = errors.New("unknown member")
	engine := NewReactionRoleEngine(platform)
	rule := testRule(guildmodels.PolicyNormal, 0, guildmodels.EmojiBinding{Emoji: "⭐", RoleID: "R1"})

	err := engine.HandleReaction(reactionEvent("⭐", ReactionAdded), rule)
	require.Error(t, err)
}

func TestEngine_NormalGrantsOnAddAndRevokesOnRemove(t *testing.T) {
	platform := newFakeRolePlatform([]string{"R1"})
	engine := NewReactionRoleEngine(platform)
	rule := testRule(guildmodels.PolicyNormal, 0, guildmodels.EmojiBinding{Emoji: "⭐", RoleID: "R1"})

	require.NoError(t, engine.HandleReaction(reactionEvent("⭐", ReactionAdded), rule))
	require.Equal(t, [][]string{{"R1"}}, platform.addCalls)

	require.NoError(t, engine.HandleReaction(reactionEvent("⭐", ReactionRemoved), rule))
	require.Equal(t, [][]string{{"R1"}}, platform.removeCalls)
	assert.Empty(t, platform.retractions)
}

func TestEngine_AddThenRemoveRoundTrips(t *testing.T) {
	//For every policy that leaves the user's reaction in place, reacting and then
	//un-reacting must return membership to its starting state
	for _, policy := range []guildmodels.RolePolicy{
		guildmodels.PolicyNormal,
		guildmodels.PolicyUnique,
		guildmodels.PolicyReversed,
		guildmodels.PolicyLimit,
	} {
		t.Run(string(policy), func(t *testing.T) {
			initialHeld := []string{}
			if policy == guildmodels.PolicyReversed {
				initialHeld = []string{"R1"}
			}
			platform := newFakeRolePlatform([]string{"R1", "R2"}, initialHeld...)
			engine := NewReactionRoleEngine(platform)
			rule := testRule(policy, 5,
				guildmodels.EmojiBinding{Emoji: "⭐", RoleID: "R1"},
				guildmodels.EmojiBinding{Emoji: "🎉", RoleID: "R2"})

			require.NoError(t, engine.HandleReaction(reactionEvent("⭐", ReactionAdded), rule))
			require.NoError(t, engine.HandleReaction(reactionEvent("⭐", ReactionRemoved), rule))
			assert.ElementsMatch(t, initialHeld, platform.heldRoles())
		})
	}
}

func TestEngine_UniqueSwapsHeldRole(t *testing.T) {
	platform := newFakeRolePlatform([]string{"R1", "R2"}, "R1")
	engine := NewReactionRoleEngine(platform)
	rule := testRule(guildmodels.PolicyUnique, 0,
		guildmodels.EmojiBinding{Emoji: "one", RoleID: "R1"},
		guildmodels.EmojiBinding{Emoji: "two", RoleID: "R2"})

	require.NoError(t, engine.HandleReaction(reactionEvent("two", ReactionAdded), rule))
	assert.Equal(t, [][]string{{"R2"}}, platform.addCalls)
	assert.Equal(t, [][]string{{"R1"}}, platform.removeCalls)
	assert.Equal(t, []string{"one"}, platform.retractions)
	assert.ElementsMatch(t, []string{"R2"}, platform.heldRoles())
}

func TestEngine_VerifyGrantsAndRetractsTrigger(t *testing.T) {
	platform := newFakeRolePlatform([]string{"R1"})
	engine := NewReactionRoleEngine(platform)
	rule := testRule(guildmodels.PolicyVerify, 0, guildmodels.EmojiBinding{Emoji: "✅", RoleID: "R1"})

	require.NoError(t, engine.HandleReaction(reactionEvent("✅", ReactionAdded), rule))
	assert.Equal(t, [][]string{{"R1"}}, platform.addCalls)
	assert.Equal(t, []string{"✅"}, platform.retractions)

	//The remove event produced by our own retraction must not revoke the role
	require.NoError(t, engine.HandleReaction(reactionEvent("✅", ReactionRemoved), rule))
	assert.Empty(t, platform.removeCalls)
}

func TestEngine_DropRevokesAndRetractsTrigger(t *testing.T) {
	platform := newFakeRolePlatform([]string{"R1"}, "R1")
	engine := NewReactionRoleEngine(platform)
	rule := testRule(guildmodels.PolicyDrop, 0, guildmodels.EmojiBinding{Emoji: "❌", RoleID: "R1"})

	require.NoError(t, engine.HandleReaction(reactionEvent("❌", ReactionAdded), rule))
	assert.Empty(t, platform.addCalls)
	assert.Equal(t, [][]string{{"R1"}}, platform.removeCalls)
	assert.Equal(t, []string{"❌"}, platform.retractions)

	require.NoError(t, engine.HandleReaction(reactionEvent("❌", ReactionRemoved), rule))
	assert.Empty(t, platform.addCalls)
}

func TestEngine_ReversedSwapsDirections(t *testing.T) {
	platform := newFakeRolePlatform([]string{"R1"}, "R1")
	engine := NewReactionRoleEngine(platform)
	rule := testRule(guildmodels.PolicyReversed, 0, guildmodels.EmojiBinding{Emoji: "⭐", RoleID: "R1"})

	require.NoError(t, engine.HandleReaction(reactionEvent("⭐", ReactionAdded), rule))
	assert.Equal(t, [][]string{{"R1"}}, platform.removeCalls)

	require.NoError(t, engine.HandleReaction(reactionEvent("⭐", ReactionRemoved), rule))
	assert.Equal(t, [][]string{{"R1"}}, platform.addCalls)
}

func TestEngine_LimitSuppressesGrantAtCap(t *testing.T) {
	platform := newFakeRolePlatform([]string{"R1", "R2", "R3"}, "R1", "R2")
	engine := NewReactionRoleEngine(platform)
	rule := testRule(guildmodels.PolicyLimit, 2,
		guildmodels.EmojiBinding{Emoji: "one", RoleID: "R1"},
		guildmodels.EmojiBinding{Emoji: "two", RoleID: "R2"},
		guildmodels.EmojiBinding{Emoji: "three", RoleID: "R3"})

	//Already at the cap of 2, so no third role is granted
	require.NoError(t, engine.HandleReaction(reactionEvent("three", ReactionAdded), rule))
	assert.Empty(t, platform.addCalls)

	//Removing a reaction still revokes as usual
	require.NoError(t, engine.HandleReaction(reactionEvent("one", ReactionRemoved), rule))
	assert.Equal(t, [][]string{{"R1"}}, platform.removeCalls)
	assert.ElementsMatch(t, []string{"R2"}, platform.heldRoles())
}

func TestEngine_BindingSwapsUnderForcedCap(t *testing.T) {
	platform := newFakeRolePlatform([]string{"R1", "R2"}, "R1")
	engine := NewReactionRoleEngine(platform)
	//A configured limit of 5 is irrelevant: binding always caps at 1
	rule := testRule(guildmodels.PolicyBinding, 5,
		guildmodels.EmojiBinding{Emoji: "one", RoleID: "R1"},
		guildmodels.EmojiBinding{Emoji: "two", RoleID: "R2"})

	require.NoError(t, engine.HandleReaction(reactionEvent("two", ReactionAdded), rule))
	assert.Equal(t, [][]string{{"R2"}}, platform.addCalls)
	assert.Equal(t, [][]string{{"R1"}}, platform.removeCalls)
	assert.ElementsMatch(t, []string{"one", "two"}, platform.retractions)
	assert.ElementsMatch(t, []string{"R2"}, platform.heldRoles())
}

func TestEngine_BindingReReactAtCapGrantsNothing(t *testing.T) {
	platform := newFakeRolePlatform([]string{"R1"}, "R1")
	engine := NewReactionRoleEngine(platform)
	rule := testRule(guildmodels.PolicyBinding, 1, guildmodels.EmojiBinding{Emoji: "one", RoleID: "R1"})

	require.NoError(t, engine.HandleReaction(reactionEvent("one", ReactionAdded), rule))
	assert.Empty(t, platform.addCalls)
	assert.Empty(t, platform.removeCalls)
	assert.Equal(t, []string{"one"}, platform.retractions)
	assert.ElementsMatch(t, []string{"R1"}, platform.heldRoles())
}
