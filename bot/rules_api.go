package bot

import (
	"fmt"

	"github.com/hoshibot/hoshi/guildmodels"
	"github.com/sirupsen/logrus"
)

//Rule mutation API. These are the operations the command surface (and any future
//management surface) uses to edit reaction role rules and starboard settings. Each
//loads the guild aggregate, mutates it and persists it, which also invalidates the
//store's cache entry for the guild.

//AddBinding attaches an emoji to role binding to the rule on the given message,
//creating the rule on first use.
func (b *HoshiBot) AddBinding(guildID, channelID, messageID, emoji, roleID string) error {
	guild, err := b.DBConnection.GetOrCreateGuild(guildID)
	if err != nil {
		return err
	}
	rule := guild.EnsureRule(channelID, messageID)
	err = rule.AddBinding(emoji, roleID)
	if err != nil {
		return err
	}
	return b.DBConnection.UpdateGuild(guild)
}

//RemoveBinding removes bindings matching emoji and/or roleID from the rule on the
//given message; empty strings match anything. The rule itself is deleted once its
//last binding goes. It returns the number of bindings removed.
func (b *HoshiBot) RemoveBinding(guildID, messageID, emoji, roleID string) (int, error) {
	guild, err := b.DBConnection.GetOrCreateGuild(guildID)
	if err != nil {
		return 0, err
	}
	removed := guild.RemoveRuleBindings(messageID, emoji, roleID)
	if removed == 0 {
		return 0, nil
	}
	return removed, b.DBConnection.UpdateGuild(guild)
}

//SetPolicy switches the rule on the given message to a new policy and limit
func (b *HoshiBot) SetPolicy(guildID, messageID string, policy guildmodels.RolePolicy, limit int) error {
	guild, err := b.DBConnection.GetOrCreateGuild(guildID)
	if err != nil {
		return err
	}
	rule := guild.RuleForMessage(messageID)
	if rule == nil {
		return fmt.Errorf("message %v has no reaction role rule", messageID)
	}
	err = rule.SetPolicy(policy, limit)
	if err != nil {
		return err
	}
	return b.DBConnection.UpdateGuild(guild)
}

//AddAdminRole adds a role to the set allowed to manage the bot's settings in a guild
func (b *HoshiBot) AddAdminRole(guildID, roleID string) error {
	guild, err := b.DBConnection.GetOrCreateGuild(guildID)
	if err != nil {
		return err
	}
	for _, existing := range guild.AdminRoles {
		if existing == roleID {
			return nil
		}
	}
	guild.AdminRoles = append(guild.AdminRoles, roleID)
	return b.DBConnection.UpdateGuild(guild)
}

//SetStarboard replaces a guild's starboard configuration
func (b *HoshiBot) SetStarboard(guildID string, cfg guildmodels.StarboardConfig) error {
	if cfg.StarThreshold < 0 {
		return fmt.Errorf("star threshold must not be negative, got %v", cfg.StarThreshold)
	}
	guild, err := b.DBConnection.GetOrCreateGuild(guildID)
	if err != nil {
		return err
	}
	guild.Starboard = cfg
	logrus.Infof("Updating starboard config for guild %v to channel %v threshold %v", guildID, cfg.ChannelID, cfg.StarThreshold)
	return b.DBConnection.UpdateGuild(guild)
}
