package guildmodels

//GuildConfig is the configuration aggregate for a discord guild managed by this bot.
//It owns the guild's reaction-role rules and its starboard settings.
type GuildConfig struct {
	DiscordGID    string             `gorethink:"id"`
	AdminRoles    []string           `gorethink:"admin_roles"`
	ReactionRules []ReactionRoleRule `gorethink:"reaction_rules"`
	Starboard     StarboardConfig    `gorethink:"starboard"`
}

//DefaultGuild returns an otherwise-empty guild aggregate with a given ID
func DefaultGuild(gid string) GuildConfig {
	return GuildConfig{
		DiscordGID: gid,
	}
}

//Clone returns a deep copy of the aggregate, including every rule's binding slice.
//The store hands out copies so that no two callers ever share mutable rule state.
func (g *GuildConfig) Clone() *GuildConfig {
	clone := *g
	clone.AdminRoles = append([]string(nil), g.AdminRoles...)
	if g.ReactionRules != nil {
		clone.ReactionRules = make([]ReactionRoleRule, len(g.ReactionRules))
		for i, rule := range g.ReactionRules {
			clone.ReactionRules[i] = rule
			clone.ReactionRules[i].Bindings = append([]EmojiBinding(nil), rule.Bindings...)
		}
	}
	return &clone
}

//RuleForMessage returns the reaction-role rule attached to the given message, or nil
//if the message has none. Most reactions hit no rule; callers treat nil as a no-op.
func (g *GuildConfig) RuleForMessage(msgID string) *ReactionRoleRule {
	for i := range g.ReactionRules {
		if g.ReactionRules[i].MessageID == msgID {
			return &g.ReactionRules[i]
		}
	}
	return nil
}

//EnsureRule returns the rule for the given message, creating a fresh normal-policy
//rule on first use.
func (g *GuildConfig) EnsureRule(chanID, msgID string) *ReactionRoleRule {
	if rule := g.RuleForMessage(msgID); rule != nil {
		return rule
	}
	g.ReactionRules = append(g.ReactionRules, ReactionRoleRule{
		ChannelID: chanID,
		MessageID: msgID,
		Policy:    PolicyNormal,
	})
	return &g.ReactionRules[len(g.ReactionRules)-1]
}

//RemoveRuleBindings removes bindings matching emoji and/or roleID from the rule on the
//given message. A rule left with no bindings is deleted from the aggregate. It returns
//the number of bindings removed.
func (g *GuildConfig) RemoveRuleBindings(msgID, emoji, roleID string) int {
	rule := g.RuleForMessage(msgID)
	if rule == nil {
		return 0
	}
	removed := rule.RemoveBinding(emoji, roleID)
	if len(rule.Bindings) == 0 {
		g.deleteRule(msgID)
	}
	return removed
}

func (g *GuildConfig) deleteRule(msgID string) {
	kept := g.ReactionRules[:0]
	for _, rule := range g.ReactionRules {
		if rule.MessageID != msgID {
			kept = append(kept, rule)
		}
	}
	g.ReactionRules = kept
}
