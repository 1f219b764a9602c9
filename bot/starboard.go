package bot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/hoshibot/hoshi/discord"
	"github.com/hoshibot/hoshi/guildmodels"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const starEmoji = "⭐"

//StarPlatform is the slice of the chat platform the starboard coordinator needs.
//Implementations report a message deleted upstream with discord.ErrUnknownMessage.
type StarPlatform interface {
	FetchMessage(channelID, messageID string) (*discordgo.Message, error)
	ReactionCount(channelID, messageID, emoji, excludeUserID string) (int, error)
	SendMessage(channelID string, send *discordgo.MessageSend) (string, error)
	EditMessage(channelID, messageID, content string, embed *discordgo.MessageEmbed) error
	ChannelNSFW(channelID string) (bool, error)
}

//StarboardStore persists starboard records for source messages
type StarboardStore interface {
	StarboardRecord(sourceMessageID string) (*guildmodels.StarboardRecord, error)
	SaveStarboardRecord(record *guildmodels.StarboardRecord) error
}

//StarboardCoordinator serialises summary post updates for one guild. For any source
//message there is never more than one write in flight; concurrent triggers coalesce
//into the running update, which re-reads the live count before writing.
type StarboardCoordinator struct {
	guildID  string
	platform StarPlatform
	store    StarboardStore
	clock    clockwork.Clock
	inflight *inflightArena
	wg       *sync.WaitGroup
}

//HandleStarEvent evaluates one star reaction add against the guild's starboard
//configuration and, if the message qualifies, requests a coalesced update for it.
func (c *StarboardCoordinator) HandleStarEvent(cfg guildmodels.StarboardConfig, channelID, messageID string) {
	if !cfg.Enabled() {
		logrus.Debugf("Starboard is not enabled in guild %v; ignoring star on message %v.", c.guildID, messageID)
		return
	}
	if !cfg.AllowNSFW {
		nsfw, err := c.platform.ChannelNSFW(channelID)
		if err != nil {
			logrus.Warnf("Failed to check NSFW flag on channel %v due to error %v", channelID, err)
			return
		}
		if nsfw {
			logrus.Debugf("Channel %v is age restricted and starboard disallows it; ignoring.", channelID)
			return
		}
	}

	src, err := c.platform.FetchMessage(channelID, messageID)
	if err != nil {
		if errors.Is(err, discord.ErrUnknownMessage) {
			logrus.Debugf("Starred message %v was deleted before it could be read; ignoring.", messageID)
		} else {
			logrus.Warnf("Failed to fetch starred message %v due to error %v", messageID, err)
		}
		return
	}
	count, err := c.platform.ReactionCount(channelID, messageID, starEmoji, src.Author.ID)
	if err != nil {
		logrus.Warnf("Failed to count stars on message %v due to error %v", messageID, err)
		return
	}
	if count < cfg.StarThreshold {
		logrus.Debugf("Message %v has %v stars, below threshold %v; ignoring.", messageID, count, cfg.StarThreshold)
		return
	}

	if !c.inflight.acquire(messageID) {
		//An in-flight update will re-read the live count before it writes, so this
		//trigger is safe to drop
		starboardCoalesced.Inc()
		logrus.Debugf("Starboard update for message %v already in flight; coalescing.", messageID)
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logrus.Errorf("Starboard update for message %v panicked: %v", messageID, r)
				c.inflight.abandon(messageID)
			}
		}()
		for {
			//cfg is the snapshot taken by the event that started this update; a
			//starboard reconfiguration landing mid-flight applies from the next event
			err := c.runUpdate(cfg, channelID, messageID)
			if err != nil {
				logrus.Errorf("Starboard update for message %v failed due to error %v", messageID, err)
			}
			if !c.inflight.release(messageID) {
				return
			}
		}
	}()
}

//runUpdate performs one serialized create-or-edit pass for a source message
func (c *StarboardCoordinator) runUpdate(cfg guildmodels.StarboardConfig, channelID, messageID string) error {
	record, err := c.store.StarboardRecord(messageID)
	if err != nil {
		return err
	}
	if record == nil {
		return c.createSummary(cfg, channelID, messageID)
	}

	//Re-read the live count so a stale trigger can never regress the posted count
	src, err := c.platform.FetchMessage(channelID, messageID)
	if err != nil {
		if errors.Is(err, discord.ErrUnknownMessage) {
			logrus.Debugf("Source message %v for starboard record was deleted; skipping update.", messageID)
			return nil
		}
		return err
	}
	live, err := c.platform.ReactionCount(channelID, messageID, starEmoji, src.Author.ID)
	if err != nil {
		return err
	}
	if live <= record.LastKnownCount {
		logrus.Debugf("Live star count %v for message %v does not beat recorded %v; skipping edit.", live, messageID, record.LastKnownCount)
		return nil
	}

	content, embed := composeSummary(c.guildID, src, live)
	err = c.platform.EditMessage(record.StarboardChannelID, record.StarboardMessageID, content, embed)
	if errors.Is(err, discord.ErrUnknownMessage) {
		//The summary post was deleted upstream; fall back to creating a fresh one
		logrus.Debugf("Starboard post %v was deleted upstream; recreating.", record.StarboardMessageID)
		return c.createSummary(cfg, channelID, messageID)
	}
	if err != nil {
		return err
	}
	starboardEdits.Inc()
	record.LastKnownCount = live
	return c.store.SaveStarboardRecord(record)
}

func (c *StarboardCoordinator) createSummary(cfg guildmodels.StarboardConfig, channelID, messageID string) error {
	src, err := c.platform.FetchMessage(channelID, messageID)
	if err != nil {
		if errors.Is(err, discord.ErrUnknownMessage) {
			logrus.Debugf("Starred message %v was deleted before a summary could be made; ignoring.", messageID)
			return nil
		}
		return err
	}
	count, err := c.platform.ReactionCount(channelID, messageID, starEmoji, src.Author.ID)
	if err != nil {
		return err
	}

	content, embed := composeSummary(c.guildID, src, count)
	summaryID, err := c.platform.SendMessage(cfg.ChannelID, &discordgo.MessageSend{
		Content: content,
		Embed:   embed,
	})
	if err != nil {
		return err
	}
	starboardCreates.Inc()
	record := guildmodels.StarboardRecord{
		SourceMessageID:    messageID,
		GuildID:            c.guildID,
		ChannelID:          channelID,
		StarboardChannelID: cfg.ChannelID,
		StarboardMessageID: summaryID,
		LastKnownCount:     count,
		FirstStarred:       c.clock.Now(),
	}
	return c.store.SaveStarboardRecord(&record)
}

//composeSummary renders the starboard post for a source message at a given star count.
//The guild id is passed in because messages fetched over REST do not carry one.
func composeSummary(guildID string, src *discordgo.Message, count int) (string, *discordgo.MessageEmbed) {
	content := fmt.Sprintf("%v %d | <#%v>", starEmoji, count, src.ChannelID)
	embed := discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeRich,
		Description: src.Content,
		Timestamp:   string(src.Timestamp),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Source",
				Value: fmt.Sprintf("[Jump to message](https://discord.com/channels/%v/%v/%v)", guildID, src.ChannelID, src.ID),
			},
		},
	}
	if src.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    src.Author.Username,
			IconURL: src.Author.AvatarURL(""),
		}
	}
	if image := soleImageAttachment(src); image != nil {
		embed.Image = &discordgo.MessageEmbedImage{URL: image.URL}
	}
	return content, &embed
}

//soleImageAttachment returns the message's image attachment iff it has exactly one
func soleImageAttachment(src *discordgo.Message) *discordgo.MessageAttachment {
	var image *discordgo.MessageAttachment
	for _, attachment := range src.Attachments {
		if attachment.Width <= 0 {
			continue
		}
		if image != nil {
			return nil
		}
		image = attachment
	}
	return image
}

//StarboardRegistry lazily creates and caches one starboard coordinator per guild.
//Entries are created on first access and live for the process lifetime.
type StarboardRegistry struct {
	mu           sync.Mutex
	coordinators map[string]*StarboardCoordinator
	platform     StarPlatform
	store        StarboardStore
	clock        clockwork.Clock
	wg           sync.WaitGroup
}

//NewStarboardRegistry creates an empty registry whose coordinators will share the
//given platform, store and clock.
func NewStarboardRegistry(platform StarPlatform, store StarboardStore, clock clockwork.Clock) *StarboardRegistry {
	return &StarboardRegistry{
		coordinators: make(map[string]*StarboardCoordinator),
		platform:     platform,
		store:        store,
		clock:        clock,
	}
}

//Coordinator returns the starboard coordinator for a guild, creating it on first use
func (r *StarboardRegistry) Coordinator(guildID string) *StarboardCoordinator {
	r.mu.Lock()
	defer r.mu.Unlock()
	if coordinator, ok := r.coordinators[guildID]; ok {
		return coordinator
	}
	coordinator := &StarboardCoordinator{
		guildID:  guildID,
		platform: r.platform,
		store:    r.store,
		clock:    r.clock,
		inflight: newInflightArena(),
		wg:       &r.wg,
	}
	r.coordinators[guildID] = coordinator
	return coordinator
}

//Wait blocks until every in-flight starboard update has finished
func (r *StarboardRegistry) Wait() {
	r.wg.Wait()
}
