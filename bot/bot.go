package bot

import (
	"net/url"

	"github.com/bwmarrin/discordgo"
	"github.com/hoshibot/hoshi/db"
	"github.com/hoshibot/hoshi/discord"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

//HoshiBot represents an instance of the discord bot, containing handles to the various external connections.
type HoshiBot struct {
	DiscordConnection *discord.EventSource
	DBConnection      *db.DBConnection
	roleEngine        *ReactionRoleEngine
	starboards        *StarboardRegistry
}

//Init creates a new HoshiBot instance
func Init() (*HoshiBot, error) {
	var res HoshiBot
	//Start database connection
	dbConn, err := db.Init()
	if err != nil {
		logrus.Errorf("Cannot start bot due to error initializing database connection: %v", err)
		return nil, err
	}

	//Start discord connection
	disc, err := discord.StartDiscordListener(&res)
	if err != nil {
		logrus.Errorf("Cannot start bot due to error initializing discord connection: %v", err)
		dbConn.Close()
		return nil, err
	}

	res.DiscordConnection = disc
	res.DBConnection = dbConn
	res.roleEngine = NewReactionRoleEngine(disc)
	res.starboards = NewStarboardRegistry(disc, dbConn, clockwork.NewRealClock())

	return &res, nil
}

//BotAddURL generates a URL that can be used to add the bot to a server
func (b *HoshiBot) BotAddURL() (*url.URL, error) {
	return b.DiscordConnection.BotAddURL()
}

//DiscordSession returns a handle to the underlying discord session
func (b *HoshiBot) DiscordSession() *discordgo.Session {
	return b.DiscordConnection.Session()
}

//Close cleanly terminates the bot instance
func (b *HoshiBot) Close() {
	logrus.Info("Terminating bot...")
	b.starboards.Wait()
	b.DiscordConnection.Close()
	b.DBConnection.Close()
}

//HandleReactionAdd is called once per de-duplicated reaction add event. The reaction
//role engine and the starboard coordinator observe the same event independently.
func (b *HoshiBot) HandleReactionAdd(r *discordgo.MessageReactionAdd) {
	evt := ReactionEvent{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		Emoji:     r.Emoji.APIName(),
		UserID:    r.UserID,
		Direction: ReactionAdded,
	}
	b.handleRoleReaction(evt)
	b.handleStarReaction(r.MessageReaction)
}

//HandleReactionRemove is called once per de-duplicated reaction remove event
func (b *HoshiBot) HandleReactionRemove(r *discordgo.MessageReactionRemove) {
	evt := ReactionEvent{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		Emoji:     r.Emoji.APIName(),
		UserID:    r.UserID,
		Direction: ReactionRemoved,
	}
	b.handleRoleReaction(evt)
}

func (b *HoshiBot) handleRoleReaction(evt ReactionEvent) {
	guild, err := b.DBConnection.GetOrCreateGuild(evt.GuildID)
	if err != nil {
		logrus.Errorf("Dropping reaction event on message %v due to error loading guild %v: %v", evt.MessageID, evt.GuildID, err)
		return
	}
	err = b.roleEngine.HandleReaction(evt, guild.RuleForMessage(evt.MessageID))
	if err != nil {
		//Top level per-event handler: log and drop, never crash
		logrus.Errorf("Failed to apply reaction role event on message %v due to error %v", evt.MessageID, err)
	}
}

func (b *HoshiBot) handleStarReaction(r *discordgo.MessageReaction) {
	if r.Emoji.APIName() != starEmoji {
		return
	}
	guild, err := b.DBConnection.GetOrCreateGuild(r.GuildID)
	if err != nil {
		logrus.Errorf("Dropping star event on message %v due to error loading guild %v: %v", r.MessageID, r.GuildID, err)
		return
	}
	coordinator := b.starboards.Coordinator(r.GuildID)
	coordinator.HandleStarEvent(guild.Starboard, r.ChannelID, r.MessageID)
}
