package bot

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/hoshibot/hoshi/guildmodels"
	"github.com/sirupsen/logrus"
)

const discordDevUIDEnvVar string = "HOSHI_DISCORD_DEV_UID"

const handleBindRoleSyntax string = "```" +
	`!bindrole "<role>" <post> <emoji>

	<role> may be the role name enclosed in double quotation marks or an @mention.
	<post> may be a message link (recommended) or the post and channel IDs in the format <channel_id>:<post_id>.
	<emoji> should be an emoji.` +
	"```"

var bindRoleRegex = regexp.MustCompile(`^\s*((?:"?<@&\d+>"?)|(?:"[^"]+")|(?:\w+))\s+(\S+)\s+(\S+)\s*$`)

//HandleBindRoleMessage handles a message containing a bind role command
//command format: !bindrole "<role>" <post> <emoji>
func (b *HoshiBot) HandleBindRoleMessage(msg *discordgo.MessageCreate) {
	commandName := "!bindrole"
	result := b.runAdminCommand(commandName, msg, func(argString string) HoshiResponse {
		matches := bindRoleRegex.FindStringSubmatch(argString)
		if matches == nil {
			return HoshiResponseSyntaxError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: "I couldn't understand that",
				syntax:      handleBindRoleSyntax,
				timestamp:   time.Now(),
			}
		}
		role, err := b.interpretRoleString(matches[1], msg.GuildID)
		if err != nil {
			return HoshiResponseInternalError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: err.Error(),
				timestamp:   time.Now(),
			}
		} else if role == nil {
			return HoshiResponseSyntaxError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: fmt.Sprintf("I couldn't find any role matching %v", matches[1]),
				syntax:      handleBindRoleSyntax,
				timestamp:   time.Now(),
			}
		}
		chanID, msgID := interpretMessageRef(matches[2])
		if chanID == nil || msgID == nil {
			return HoshiResponseSyntaxError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: fmt.Sprintf("%v does not look like a message link or <channel_id>:<post_id> pair", matches[2]),
				syntax:      handleBindRoleSyntax,
				timestamp:   time.Now(),
			}
		}
		emoji := interpretEmoji(matches[3])
		if emoji == nil {
			return HoshiResponseSyntaxError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: fmt.Sprintf("%v does not look like an emoji", matches[3]),
				syntax:      handleBindRoleSyntax,
				timestamp:   time.Now(),
			}
		}
		err = b.AddBinding(msg.GuildID, *chanID, *msgID, *emoji, role.ID)
		if err != nil {
			return HoshiResponseInternalError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: err.Error(),
				timestamp:   time.Now(),
			}
		}
		return HoshiResponseSuccess{
			command:     commandName,
			commandMsg:  msg.Content,
			description: fmt.Sprintf("Reacting with %v on that post now grants the %v role.", matches[3], role.Name),
			timestamp:   time.Now(),
		}
	})
	b.respondTo(msg, result)
}

const handleUnbindRoleSyntax string = "```" +
	`!unbindrole <post> [emoji]

	<post> may be a message link or <channel_id>:<post_id>.
	If [emoji] is given only that binding is removed, otherwise every binding on the post goes.` +
	"```"

//HandleUnbindRoleMessage handles a message containing an unbind role command
//command format: !unbindrole <post> [emoji]
func (b *HoshiBot) HandleUnbindRoleMessage(msg *discordgo.MessageCreate) {
	commandName := "!unbindrole"
	result := b.runAdminCommand(commandName, msg, func(argString string) HoshiResponse {
		fields := strings.Fields(argString)
		if len(fields) < 1 || len(fields) > 2 {
			return HoshiResponseSyntaxError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: "I couldn't understand that",
				syntax:      handleUnbindRoleSyntax,
				timestamp:   time.Now(),
			}
		}
		chanID, msgID := interpretMessageRef(fields[0])
		if chanID == nil || msgID == nil {
			return HoshiResponseSyntaxError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: fmt.Sprintf("%v does not look like a message link or <channel_id>:<post_id> pair", fields[0]),
				syntax:      handleUnbindRoleSyntax,
				timestamp:   time.Now(),
			}
		}
		emoji := ""
		if len(fields) == 2 {
			parsed := interpretEmoji(fields[1])
			if parsed == nil {
				return HoshiResponseSyntaxError{
					command:     commandName,
					commandMsg:  msg.Content,
					description: fmt.Sprintf("%v does not look like an emoji", fields[1]),
					syntax:      handleUnbindRoleSyntax,
					timestamp:   time.Now(),
				}
			}
			emoji = *parsed
		}
		removed, err := b.RemoveBinding(msg.GuildID, *msgID, emoji, "")
		if err != nil {
			return HoshiResponseInternalError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: err.Error(),
				timestamp:   time.Now(),
			}
		}
		return HoshiResponseSuccess{
			command:     commandName,
			commandMsg:  msg.Content,
			description: fmt.Sprintf("Removed %v binding(s) from that post.", removed),
			timestamp:   time.Now(),
		}
	})
	b.respondTo(msg, result)
}

const handleRolePolicySyntax string = "```" +
	`!rolepolicy <post> <policy> [limit]

	<post> may be a message link or <channel_id>:<post_id>.
	<policy> is one of: normal, unique, verify, drop, reversed, limit, binding.
	[limit] is the maximum number of the post's roles a member may hold; it only
	matters for the limit policy, and the binding policy always uses 1.` +
	"```"

//HandleRolePolicyMessage handles a message containing a set policy command
//command format: !rolepolicy <post> <policy> [limit]
func (b *HoshiBot) HandleRolePolicyMessage(msg *discordgo.MessageCreate) {
	commandName := "!rolepolicy"
	result := b.runAdminCommand(commandName, msg, func(argString string) HoshiResponse {
		fields := strings.Fields(argString)
		if len(fields) < 2 || len(fields) > 3 {
			return HoshiResponseSyntaxError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: "I couldn't understand that",
				syntax:      handleRolePolicySyntax,
				timestamp:   time.Now(),
			}
		}
		chanID, msgID := interpretMessageRef(fields[0])
		if chanID == nil || msgID == nil {
			return HoshiResponseSyntaxError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: fmt.Sprintf("%v does not look like a message link or <channel_id>:<post_id> pair", fields[0]),
				syntax:      handleRolePolicySyntax,
				timestamp:   time.Now(),
			}
		}
		policy, err := guildmodels.ParseRolePolicy(fields[1])
		if err != nil {
			return HoshiResponseSyntaxError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: err.Error(),
				syntax:      handleRolePolicySyntax,
				timestamp:   time.Now(),
			}
		}
		limit := 0
		if len(fields) == 3 {
			limit, err = strconv.Atoi(fields[2])
			if err != nil || limit < 0 {
				return HoshiResponseSyntaxError{
					command:     commandName,
					commandMsg:  msg.Content,
					description: fmt.Sprintf("%v is not a valid role limit", fields[2]),
					syntax:      handleRolePolicySyntax,
					timestamp:   time.Now(),
				}
			}
		}
		err = b.SetPolicy(msg.GuildID, *msgID, policy, limit)
		if err != nil {
			return HoshiResponseInternalError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: err.Error(),
				timestamp:   time.Now(),
			}
		}
		return HoshiResponseSuccess{
			command:     commandName,
			commandMsg:  msg.Content,
			description: fmt.Sprintf("That post now uses the %v policy.", policy),
			timestamp:   time.Now(),
		}
	})
	b.respondTo(msg, result)
}

const handleStarboardSyntax string = "```" +
	`!starboard <#channel> <threshold> [nsfw] or !starboard off

	Messages reaching <threshold> star reactions are mirrored into <#channel>.
	Pass "nsfw" to also mirror posts from age restricted channels.` +
	"```"

//HandleStarboardMessage handles a message containing a starboard configuration command
//command format: !starboard <#channel> <threshold> [nsfw]
func (b *HoshiBot) HandleStarboardMessage(msg *discordgo.MessageCreate) {
	commandName := "!starboard"
	result := b.runAdminCommand(commandName, msg, func(argString string) HoshiResponse {
		fields := strings.Fields(argString)
		if len(fields) == 1 && fields[0] == "off" {
			err := b.SetStarboard(msg.GuildID, guildmodels.StarboardConfig{})
			if err != nil {
				return HoshiResponseInternalError{
					command:     commandName,
					commandMsg:  msg.Content,
					description: err.Error(),
					timestamp:   time.Now(),
				}
			}
			return HoshiResponseSuccess{
				command:     commandName,
				commandMsg:  msg.Content,
				description: "The starboard is now disabled.",
				timestamp:   time.Now(),
			}
		}
		if len(fields) < 2 || len(fields) > 3 {
			return HoshiResponseSyntaxError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: "I couldn't understand that",
				syntax:      handleStarboardSyntax,
				timestamp:   time.Now(),
			}
		}
		channelID := interpretChannelRef(fields[0])
		if channelID == nil {
			return HoshiResponseSyntaxError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: fmt.Sprintf("%v does not look like a channel", fields[0]),
				syntax:      handleStarboardSyntax,
				timestamp:   time.Now(),
			}
		}
		threshold, err := strconv.Atoi(fields[1])
		if err != nil || threshold < 1 {
			return HoshiResponseSyntaxError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: fmt.Sprintf("%v is not a valid star threshold", fields[1]),
				syntax:      handleStarboardSyntax,
				timestamp:   time.Now(),
			}
		}
		allowNSFW := len(fields) == 3 && fields[2] == "nsfw"
		err = b.SetStarboard(msg.GuildID, guildmodels.StarboardConfig{
			ChannelID:     *channelID,
			StarThreshold: threshold,
			AllowNSFW:     allowNSFW,
		})
		if err != nil {
			return HoshiResponseInternalError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: err.Error(),
				timestamp:   time.Now(),
			}
		}
		return HoshiResponseSuccess{
			command:     commandName,
			commandMsg:  msg.Content,
			description: fmt.Sprintf("Messages with %v or more stars will now be posted to <#%v>.", threshold, *channelID),
			timestamp:   time.Now(),
		}
	})
	b.respondTo(msg, result)
}

const handleAddAdminRoleSyntax string = "`!addadminrole \"<role>\"` or `!addadminrole @<role>`"

//HandleAddAdminRoleMessage handles a message containing an add admin role command
//command format: !addadminrole <role>
func (b *HoshiBot) HandleAddAdminRoleMessage(msg *discordgo.MessageCreate) {
	commandName := "!addadminrole"
	result := b.runAdminCommand(commandName, msg, func(argString string) HoshiResponse {
		matchingRole, err := b.interpretRoleString(argString, msg.GuildID)
		if err != nil {
			return HoshiResponseInternalError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: err.Error(),
				timestamp:   time.Now(),
			}
		} else if matchingRole == nil {
			return HoshiResponseSyntaxError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: fmt.Sprintf("I couldn't find any role matching %v", argString),
				syntax:      handleAddAdminRoleSyntax,
				timestamp:   time.Now(),
			}
		}
		err = b.AddAdminRole(msg.GuildID, matchingRole.ID)
		if err != nil {
			return HoshiResponseInternalError{
				command:     commandName,
				commandMsg:  msg.Content,
				description: err.Error(),
				timestamp:   time.Now(),
			}
		}
		return HoshiResponseSuccess{
			command:     commandName,
			commandMsg:  msg.Content,
			description: fmt.Sprintf("Members with the %v role can now manage my settings.", matchingRole.Name),
			timestamp:   time.Now(),
		}
	})
	b.respondTo(msg, result)
}

/**************************
/     Utility Functions
/**************************/

//runAdminCommand gates a command body behind the admin check and strips the command
//word from the message before handing the arguments over.
func (b *HoshiBot) runAdminCommand(commandName string, msg *discordgo.MessageCreate, body func(argString string) HoshiResponse) HoshiResponse {
	isFromAdmin, err := b.isFromAdmin(msg.Member, msg.Author, msg.GuildID)
	if err != nil {
		logrus.Warnf("Failed to check if message came from admin due to error %v", err)
		return HoshiResponseInternalError{
			command:     commandName,
			commandMsg:  msg.Content,
			description: err.Error(),
			timestamp:   time.Now(),
		}
	} else if !isFromAdmin {
		return HoshiResponseNotAllowed{
			command:     commandName,
			commandMsg:  msg.Content,
			description: "Only server admins can change reaction role and starboard settings.",
			timestamp:   time.Now(),
		}
	}
	argString := strings.TrimPrefix(msg.Content, commandName)
	argString = strings.TrimLeft(argString, " ")
	return body(argString)
}

func (b *HoshiBot) respondTo(msg *discordgo.MessageCreate, result HoshiResponse) {
	result.WriteToLog()
	resp := result.DiscordResponse()
	resp.Reference = &discordgo.MessageReference{
		MessageID: msg.ID,
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
	}
	_, err := b.DiscordSession().ChannelMessageSendComplex(msg.ChannelID, resp)
	if err != nil {
		logrus.Errorf("Failed to send response to command due to error %v", err)
	}
}

func (b *HoshiBot) isFromAdmin(member *discordgo.Member, user *discordgo.User, guildID string) (bool, error) {
	//Works if from dev
	if isDev(user.ID) {
		return true, nil
	}
	//Works if from server owner
	guild, err := b.DiscordSession().Guild(guildID)
	if err != nil {
		logrus.Warnf("Failed to fetch guild object from Discord API when checking if user %v is admin for server %v", user.ID, guildID)
		return false, err
	} else if guild.OwnerID == user.ID {
		return true, nil
	}
	//Works if user has an admin role
	localGuild, err := b.DBConnection.GetOrCreateGuild(guildID)
	if err != nil {
		logrus.Warnf("Failed to fetch guild object from Database when checking if user %v is admin for server %v", user.ID, guildID)
		return false, err
	}
	if member == nil {
		return false, nil
	}
	for _, adminRole := range localGuild.AdminRoles {
		for _, senderRole := range member.Roles {
			if adminRole == senderRole {
				return true, nil
			}
		}
	}
	return false, nil
}

func isDev(userID string) bool {
	devUID, exists := os.LookupEnv(discordDevUIDEnvVar)
	if !exists {
		return false
	}
	return userID == devUID
}
