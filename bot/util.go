package bot

import (
	"fmt"
	"regexp"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

//Allows @mentions, double quotation marked roles or roles only made up from letters
var roleRegex = regexp.MustCompile(`^\s*(?:"?<@&(\d+)>"?|"([^"]+)"|(\w+))\s*$`)

func (b *HoshiBot) interpretRoleString(roleStr string, guildID string) (*discordgo.Role, error) {
	guildRoles, err := b.DiscordSession().GuildRoles(guildID)
	if err != nil {
		logrus.Warnf("Failed to fetch guild roles for guild id %v", guildID)
		return nil, err
	}
	matches := roleRegex.FindStringSubmatch(roleStr)
	if matches == nil {
		return nil, fmt.Errorf("`%v` was not a valid role string format", roleStr)
	}

	if rid := matches[1]; rid != "" {
		//We have a role id directly
		for _, guildRole := range guildRoles {
			if guildRole.ID == rid {
				return guildRole, nil
			}
		}
		return nil, nil
	}
	//We have a role name, quoted or bare
	roleName := matches[2]
	if roleName == "" {
		roleName = matches[3]
	}
	for _, guildRole := range guildRoles {
		if guildRole.Name == roleName {
			return guildRole, nil
		}
	}
	return nil, nil
}

//The symbol-other unicode category does not work with RE2, so unicode emoji are
//matched loosely as a short non-space run
const unicodeEmojiRegex = `(\S{1,4})`

var emojiRegex = regexp.MustCompile(`(<(a?):([^:]+):(\d+)>)|` + unicodeEmojiRegex)

func interpretEmoji(emojiStr string) *string {
	matches := emojiRegex.FindStringSubmatch(emojiStr)
	switch {
	case matches == nil:
		return nil
	case matches[1] != "":
		//Discord guild emoji are addressed over the API as name:id
		apiName := fmt.Sprintf("%v:%v", matches[3], matches[4])
		return &apiName
	case matches[5] != "":
		//Unicode emoji
		return &matches[5]
	default:
		return nil
	}
}

//Allows message links or <channel_id>:<message_id> pairs
var messageRegex = regexp.MustCompile(`(?:https://discord\.com/channels/\d+/(\d{17,20})/(\d{17,20}))|(?:(\d{17,20}):(\d{17,20}))`)

func interpretMessageRef(messageStr string) (chanID, msgID *string) {
	matches := messageRegex.FindStringSubmatch(messageStr)
	switch {
	case matches == nil:
		return nil, nil
	case matches[1] != "":
		//Message link
		return &matches[1], &matches[2]
	case matches[3] != "":
		//channel:message ID pair
		return &matches[3], &matches[4]
	default:
		return nil, nil
	}
}

//Allows #channel mentions or bare channel ids
var channelRegex = regexp.MustCompile(`^\s*(?:<#(\d{17,20})>|(\d{17,20}))\s*$`)

func interpretChannelRef(channelStr string) *string {
	matches := channelRegex.FindStringSubmatch(channelStr)
	switch {
	case matches == nil:
		return nil
	case matches[1] != "":
		return &matches[1]
	default:
		return &matches[2]
	}
}
