package db

import (
	"fmt"

	"github.com/hoshibot/hoshi/guildmodels"
	"github.com/sirupsen/logrus"
	rethink "gopkg.in/gorethink/gorethink.v3"
)

const guildsTable string = "guilds"

//GetOrCreateGuild fetches a guild aggregate with a given ID, creating a new one if it
//does not exist. Reads are served from the guild cache where possible.
func (db *DBConnection) GetOrCreateGuild(id string) (*guildmodels.GuildConfig, error) {
	if cached := db.guilds.get(id); cached != nil {
		return cached, nil
	}
	var guildObj guildmodels.GuildConfig
	res, err := rethink.Table(guildsTable).Get(id).Run(db.session)
	if err != nil {
		logrus.Errorf("Failed to query database for guild %v because: %v.", id, err)
		return nil, fmt.Errorf("failed to query database for guild %v because: %v", id, err)
	}
	defer res.Close()

	if res.IsNil() {
		//Create new guild aggregate
		logrus.Infof("Inserting new guild id %v into database.", id)
		guildObj = guildmodels.DefaultGuild(id)
		resp, err := rethink.Table(guildsTable).Insert(guildObj).RunWrite(db.session)
		if err != nil {
			logrus.Errorf("Failed to insert new guild with id %v because: %v.", id, err)
			return nil, fmt.Errorf("failed to insert new guild with id %v because: %v", id, err)
		} else if resp.Inserted != 1 {
			logrus.Warnf("Expected to insert 1 new guild but recieved response %v.", resp)
		}
	} else {
		err = res.One(&guildObj)
		if err != nil {
			logrus.Errorf("Failed to read guild %v from database because: %v.", id, err)
			return nil, fmt.Errorf("failed to read guild %v from database because: %v", id, err)
		}
	}
	db.guilds.put(&guildObj)
	return &guildObj, nil
}

//UpdateGuild replaces the stored aggregate for a guild and invalidates its cache entry.
//The entry is evicted even when the write fails, so the next read always comes from the
//database rather than from state the failed write left behind.
func (db *DBConnection) UpdateGuild(guild *guildmodels.GuildConfig) error {
	defer db.guilds.invalidate(guild.DiscordGID)
	resp, err := rethink.Table(guildsTable).Insert(guild, rethink.InsertOpts{
		Conflict: "replace",
	}).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error updating guild %v in database: %v.", guild.DiscordGID, err)
		return err
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%v", resp.FirstError)
		logrus.Warnf("Encountered error updating guild %v in database: %v.", guild.DiscordGID, err)
		return err
	}
	return nil
}

//DeleteGuild removes a guild aggregate and invalidates its cache entry
func (db *DBConnection) DeleteGuild(id string) error {
	defer db.guilds.invalidate(id)
	_, err := rethink.Table(guildsTable).Get(id).Delete().RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error deleting guild %v from database: %v.", id, err)
		return err
	}
	return nil
}
