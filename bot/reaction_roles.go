package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/hoshibot/hoshi/guildmodels"
	"github.com/sirupsen/logrus"
)

//ReactionDirection says whether a reaction was added to or removed from a message
type ReactionDirection int

//The two directions a reaction event can take
const (
	ReactionAdded ReactionDirection = iota
	ReactionRemoved
)

//ReactionEvent is a single de-duplicated reaction add or remove on a guild message
type ReactionEvent struct {
	GuildID   string
	ChannelID string
	MessageID string
	Emoji     string
	UserID    string
	Direction ReactionDirection
}

//RolePlatform is the slice of the chat platform the reaction role engine needs in
//order to apply its decisions.
type RolePlatform interface {
	GuildRoles(guildID string) ([]*discordgo.Role, error)
	MemberRoles(guildID, userID string) ([]string, error)
	AddMemberRoles(guildID, userID string, roleIDs []string) error
	RemoveMemberRoles(guildID, userID string, roleIDs []string) error
	RemoveUserReaction(channelID, messageID, emoji, userID string) error
}

//ReactionRoleEngine translates reaction events plus the matching rule into role
//grants, role revocations and reaction retractions, and applies them.
type ReactionRoleEngine struct {
	platform RolePlatform
}

//NewReactionRoleEngine creates an engine which applies its decisions through the
//given platform.
func NewReactionRoleEngine(platform RolePlatform) *ReactionRoleEngine {
	return &ReactionRoleEngine{platform: platform}
}

//rolePlan is the computed side effect set for one reaction event
type rolePlan struct {
	adds     []string
	removes  []string
	retracts []guildmodels.EmojiBinding
}

//HandleReaction evaluates one reaction event against the rule for its message. A nil
//rule or an unbound emoji is a normal outcome and performs no side effect.
func (e *ReactionRoleEngine) HandleReaction(evt ReactionEvent, rule *guildmodels.ReactionRoleRule) error {
	if rule == nil {
		logrus.Debugf("No reaction role rule for message %v; ignoring.", evt.MessageID)
		return nil
	}
	binding := rule.Binding(evt.Emoji)
	if binding == nil {
		logrus.Debugf("Emoji %v is not bound on message %v; ignoring.", evt.Emoji, evt.MessageID)
		return nil
	}

	//A rule role that has been deleted on the platform makes the event a no-op
	exists, err := e.roleExists(evt.GuildID, binding.RoleID)
	if err != nil {
		return err
	}
	if !exists {
		logrus.Debugf("Role %v bound on message %v no longer exists in guild %v; ignoring.", binding.RoleID, evt.MessageID, evt.GuildID)
		return nil
	}

	held, err := e.heldRuleRoles(evt.GuildID, evt.UserID, rule)
	if err != nil {
		return err
	}

	plan := computeRolePlan(rule, *binding, held, evt.Direction)
	reactionRoleEvents.WithLabelValues(string(rule.Policy)).Inc()
	return e.apply(evt, plan)
}

//computeRolePlan is the policy dispatch at the heart of the engine. held is the set of
//this rule's roles the acting user currently has.
func computeRolePlan(rule *guildmodels.ReactionRoleRule, binding guildmodels.EmojiBinding, held map[string]bool, direction ReactionDirection) rolePlan {
	if direction == ReactionRemoved {
		return removalPlan(rule, binding)
	}

	plan := rolePlan{adds: []string{binding.RoleID}}
	switch rule.Policy {
	case guildmodels.PolicyNormal:
	case guildmodels.PolicyReversed:
		plan.adds = nil
		plan.removes = []string{binding.RoleID}
	case guildmodels.PolicyVerify:
		plan.retracts = append(plan.retracts, binding)
	case guildmodels.PolicyDrop:
		plan.adds = nil
		plan.removes = []string{binding.RoleID}
		plan.retracts = append(plan.retracts, binding)
	case guildmodels.PolicyUnique:
		plan.removes, plan.retracts = otherHeldBindings(rule, binding, held)
	case guildmodels.PolicyLimit:
		if countHeldOutside(held, nil) >= rule.EffectiveLimit() {
			plan.adds = nil
		}
	case guildmodels.PolicyBinding:
		plan.removes, plan.retracts = otherHeldBindings(rule, binding, held)
		plan.retracts = append(plan.retracts, binding)
		//The cap ignores roles this same event is about to revoke, so swapping to a
		//different role under the cap still works
		if countHeldOutside(held, plan.removes) >= rule.EffectiveLimit() {
			plan.adds = nil
		}
	}
	return plan
}

//removalPlan mirrors the add direction for the policies whose reactions survive long
//enough to be removed by the user. Verify, drop and binding retract their own trigger
//reactions, so a remove event for them is an echo of our retraction and does nothing.
func removalPlan(rule *guildmodels.ReactionRoleRule, binding guildmodels.EmojiBinding) rolePlan {
	switch rule.Policy {
	case guildmodels.PolicyNormal, guildmodels.PolicyUnique, guildmodels.PolicyLimit:
		return rolePlan{removes: []string{binding.RoleID}}
	case guildmodels.PolicyReversed:
		return rolePlan{adds: []string{binding.RoleID}}
	case guildmodels.PolicyVerify, guildmodels.PolicyDrop, guildmodels.PolicyBinding:
		return rolePlan{}
	}
	return rolePlan{}
}

//otherHeldBindings collects the roles and reactions of every binding on the rule other
//than the triggering one whose role the user currently holds.
func otherHeldBindings(rule *guildmodels.ReactionRoleRule, trigger guildmodels.EmojiBinding, held map[string]bool) ([]string, []guildmodels.EmojiBinding) {
	var removes []string
	var retracts []guildmodels.EmojiBinding
	for _, other := range rule.Bindings {
		if other.Emoji == trigger.Emoji || !held[other.RoleID] {
			continue
		}
		removes = append(removes, other.RoleID)
		retracts = append(retracts, other)
	}
	return removes, retracts
}

//countHeldOutside counts held roles not scheduled for removal by this same event
func countHeldOutside(held map[string]bool, removes []string) int {
	removing := make(map[string]bool, len(removes))
	for _, roleID := range removes {
		removing[roleID] = true
	}
	count := 0
	for roleID := range held {
		if !removing[roleID] {
			count++
		}
	}
	return count
}

func (e *ReactionRoleEngine) apply(evt ReactionEvent, plan rolePlan) error {
	if len(plan.adds) > 0 {
		err := e.platform.AddMemberRoles(evt.GuildID, evt.UserID, plan.adds)
		if err != nil {
			return err
		}
	}
	if len(plan.removes) > 0 {
		err := e.platform.RemoveMemberRoles(evt.GuildID, evt.UserID, plan.removes)
		if err != nil {
			return err
		}
	}
	for _, binding := range plan.retracts {
		err := e.platform.RemoveUserReaction(evt.ChannelID, evt.MessageID, binding.Emoji, evt.UserID)
		if err != nil {
			//Retraction failures are cosmetic; the role state is already correct
			logrus.Warnf("Failed to retract reaction %v by user %v on message %v due to error %v", binding.Emoji, evt.UserID, evt.MessageID, err)
		}
	}
	return nil
}

func (e *ReactionRoleEngine) roleExists(guildID, roleID string) (bool, error) {
	roles, err := e.platform.GuildRoles(guildID)
	if err != nil {
		logrus.Warnf("Failed to fetch guild roles for guild id %v due to error %v", guildID, err)
		return false, err
	}
	for _, role := range roles {
		if role.ID == roleID {
			return true, nil
		}
	}
	return false, nil
}

//heldRuleRoles returns the subset of the rule's roles the acting user currently holds
func (e *ReactionRoleEngine) heldRuleRoles(guildID, userID string, rule *guildmodels.ReactionRoleRule) (map[string]bool, error) {
	memberRoles, err := e.platform.MemberRoles(guildID, userID)
	if err != nil {
		return nil, err
	}
	ruleRoles := make(map[string]bool, len(rule.Bindings))
	for _, roleID := range rule.RoleIDs() {
		ruleRoles[roleID] = true
	}
	held := make(map[string]bool)
	for _, roleID := range memberRoles {
		if ruleRoles[roleID] {
			held[roleID] = true
		}
	}
	return held, nil
}
