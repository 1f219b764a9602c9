package bot

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

//HandleMessage is called upon every recieved message. It checks if the message is a command, and executes it.
func (b *HoshiBot) HandleMessage(msg *discordgo.MessageCreate) {
	if len(msg.Content) == 0 || msg.Content[0] != '!' {
		return
	}
	//We have a command
	words := strings.SplitN(msg.Content, " ", 2)
	command := strings.TrimLeft(words[0], "!")
	switch command {
	case "addadminrole":
		b.HandleAddAdminRoleMessage(msg)
	case "bindrole":
		b.HandleBindRoleMessage(msg)
	case "unbindrole":
		b.HandleUnbindRoleMessage(msg)
	case "rolepolicy":
		b.HandleRolePolicyMessage(msg)
	case "starboard":
		b.HandleStarboardMessage(msg)
	}
}
