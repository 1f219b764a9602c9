package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const reactionPageSize int = 100

//ErrUnknownMessage is returned when discord reports that a message no longer exists,
//usually because it was deleted while an event for it was still in flight.
var ErrUnknownMessage = errors.New("message no longer exists upstream")

//GuildRoles returns all roles currently defined in the given guild
func (d *EventSource) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	return d.discordClient.GuildRoles(guildID)
}

//MemberRoles returns the ids of all roles held by the given member, preferring the
//state cache over a REST call where possible.
func (d *EventSource) MemberRoles(guildID, userID string) ([]string, error) {
	if member, err := d.discordClient.State.Member(guildID, userID); err == nil {
		return member.Roles, nil
	}
	member, err := d.discordClient.GuildMember(guildID, userID)
	if err != nil {
		logrus.Warnf("Failed to fetch member %v in guild %v due to error %v", userID, guildID, err)
		return nil, err
	}
	return member.Roles, nil
}

//AddMemberRoles grants every role in roleIDs to the given member
func (d *EventSource) AddMemberRoles(guildID, userID string, roleIDs []string) error {
	for _, roleID := range roleIDs {
		err := d.discordClient.GuildMemberRoleAdd(guildID, userID, roleID)
		if err != nil {
			return err
		}
	}
	return nil
}

//RemoveMemberRoles revokes every role in roleIDs from the given member
func (d *EventSource) RemoveMemberRoles(guildID, userID string, roleIDs []string) error {
	for _, roleID := range roleIDs {
		err := d.discordClient.GuildMemberRoleRemove(guildID, userID, roleID)
		if err != nil {
			return err
		}
	}
	return nil
}

//RemoveUserReaction retracts a single user's reaction from a message
func (d *EventSource) RemoveUserReaction(channelID, messageID, emoji, userID string) error {
	return d.discordClient.MessageReactionRemove(channelID, messageID, emoji, userID)
}

//ReactionCount counts the users who reacted to a message with the given emoji,
//excluding excludeUserID (used to discount a message author starring their own post).
func (d *EventSource) ReactionCount(channelID, messageID, emoji, excludeUserID string) (int, error) {
	count := 0
	after := ""
	for {
		users, err := d.discordClient.MessageReactions(channelID, messageID, emoji, reactionPageSize, "", after)
		if err != nil {
			return 0, mapUnknownMessage(err)
		}
		for _, user := range users {
			if user.ID != excludeUserID {
				count++
			}
		}
		if len(users) < reactionPageSize {
			return count, nil
		}
		after = users[len(users)-1].ID
	}
}

//FetchMessage retrieves a message by id, mapping a deletion race to ErrUnknownMessage
func (d *EventSource) FetchMessage(channelID, messageID string) (*discordgo.Message, error) {
	msg, err := d.discordClient.ChannelMessage(channelID, messageID)
	if err != nil {
		return nil, mapUnknownMessage(err)
	}
	return msg, nil
}

//SendMessage posts a message to a channel and returns the id of the created message
func (d *EventSource) SendMessage(channelID string, send *discordgo.MessageSend) (string, error) {
	msg, err := d.discordClient.ChannelMessageSendComplex(channelID, send)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

//EditMessage replaces the content and embed of an existing message, mapping a deletion
//race to ErrUnknownMessage so callers can recreate the post instead.
func (d *EventSource) EditMessage(channelID, messageID, content string, embed *discordgo.MessageEmbed) error {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	edit.Content = &content
	edit.Embed = embed
	_, err := d.discordClient.ChannelMessageEditComplex(edit)
	return mapUnknownMessage(err)
}

//ChannelNSFW reports whether the given channel is marked as age restricted
func (d *EventSource) ChannelNSFW(channelID string) (bool, error) {
	channel, err := d.discordClient.Channel(channelID)
	if err != nil {
		return false, err
	}
	return channel.NSFW, nil
}

func mapUnknownMessage(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
		return ErrUnknownMessage
	}
	return err
}
