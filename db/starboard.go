package db

import (
	"fmt"

	"github.com/hoshibot/hoshi/guildmodels"
	"github.com/sirupsen/logrus"
	rethink "gopkg.in/gorethink/gorethink.v3"
)

const starboardTable string = "starboard"

//StarboardRecord fetches the starboard record for the given source message, returning
//nil if the message has never crossed the star threshold.
func (db *DBConnection) StarboardRecord(sourceMessageID string) (*guildmodels.StarboardRecord, error) {
	res, err := rethink.Table(starboardTable).Get(sourceMessageID).Run(db.session)
	if err != nil {
		logrus.Warnf("Failed to look up starboard record for message %v due to error %v", sourceMessageID, err)
		return nil, err
	}
	defer res.Close()
	if res.IsNil() {
		return nil, nil
	}
	var record guildmodels.StarboardRecord
	err = res.One(&record)
	if err != nil {
		logrus.Warnf("Failed to read starboard record for message %v due to error %v", sourceMessageID, err)
		return nil, err
	}
	return &record, nil
}

//SaveStarboardRecord inserts or updates the starboard record for a source message
func (db *DBConnection) SaveStarboardRecord(record *guildmodels.StarboardRecord) error {
	resp, err := rethink.Table(starboardTable).Insert(record, rethink.InsertOpts{
		Conflict: "update",
	}).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Failed to save starboard record for message %v due to error %v", record.SourceMessageID, err)
		return err
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%v", resp.FirstError)
		logrus.Warnf("Failed to save starboard record for message %v due to error %v", record.SourceMessageID, err)
		return err
	}
	return nil
}
