package guildmodels

import "time"

//StarboardConfig holds a guild's starboard settings. A missing channel or a zero
//threshold disables the starboard entirely.
type StarboardConfig struct {
	ChannelID     string `gorethink:"channel_id"`
	StarThreshold int    `gorethink:"star_threshold"`
	AllowNSFW     bool   `gorethink:"allow_nsfw"`
}

//Enabled reports whether star reactions in this guild should be considered at all
func (c *StarboardConfig) Enabled() bool {
	return c.ChannelID != "" && c.StarThreshold > 0
}

//StarboardRecord tracks the summary post made for one starred source message.
//LastKnownCount never decreases across successful updates, and records are never
//deleted once created, even if the live star count later drops below the threshold.
type StarboardRecord struct {
	SourceMessageID    string    `gorethink:"id"`
	GuildID            string    `gorethink:"guild_id"`
	ChannelID          string    `gorethink:"channel_id"`
	StarboardChannelID string    `gorethink:"starboard_channel_id"`
	StarboardMessageID string    `gorethink:"starboard_message_id"`
	LastKnownCount     int       `gorethink:"last_known_count"`
	FirstStarred       time.Time `gorethink:"first_starred"`
}
