package db

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	rethink "gopkg.in/gorethink/gorethink.v3"
)

const dbAddrEnvVar string = "HOSHI_DB_ADDR"
const dbNameDefault string = "hoshi"
const dbNameEnvVar string = "HOSHI_DB_NAME"
const baseDbPoolConnections int = 2
const maxDbPoolConnections int = 20

//DBConnection contains a handle to the database along with the guild aggregate cache
type DBConnection struct {
	session *rethink.Session
	guilds  *guildCache
}

//Init creates a new connection pool for the database at the address provided by the relevant environment variable
func Init() (*DBConnection, error) {
	//Get DB name from env
	dbName, exists := os.LookupEnv(dbNameEnvVar)
	if !exists {
		logrus.Warnf("DB name was not provided, falling back to default `%v`", dbNameDefault)
		dbName = dbNameDefault
	}
	//Get DB address from env
	rethinkDBAddr, exists := os.LookupEnv(dbAddrEnvVar)
	if !exists {
		logrus.Errorf("`%v` env variable was not set.", dbAddrEnvVar)
		return nil, fmt.Errorf("`%v` env variable was not set", dbAddrEnvVar)
	}
	//Create new connection pool to db
	session, err := rethink.Connect(rethink.ConnectOpts{
		Address:    rethinkDBAddr,
		Database:   dbName,
		InitialCap: baseDbPoolConnections,
		MaxOpen:    maxDbPoolConnections,
	})
	if err != nil {
		logrus.Errorf("Failed to create connection to rethinkdb instance at address %v because %v.", rethinkDBAddr, err)
		return nil, fmt.Errorf("failed to create connection to rethinkdb instance at address %v because %v", rethinkDBAddr, err)
	}

	res := DBConnection{
		session: session,
		guilds:  newGuildCache(),
	}

	//Ensure database and required tables exist, and wait for it all to be ready
	res.CreateDatabase(dbName)
	res.CreateTables()

	return &res, nil
}

//Close cleanly terminates the database connection
func (db *DBConnection) Close() {
	logrus.Info("Terminating DB connection...")
	_ = db.session.Close()
}

//CreateTables ensures all tables needed exist.
func (db *DBConnection) CreateTables() {
	//guild aggregates table
	_, err := rethink.TableCreate(guildsTable, rethink.TableCreateOpts{
		PrimaryKey: "id",
	}).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Failed to create guilds table due to error %v", err)
	}
	//starboard records table, keyed by source message id
	_, err = rethink.TableCreate(starboardTable, rethink.TableCreateOpts{
		PrimaryKey: "id",
	}).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Failed to create starboard table due to error %v", err)
	}
	//Wait for all tables
	rethink.Table(guildsTable).Wait()
	rethink.Table(starboardTable).Wait()
}

//CreateDatabase ensures the hoshi database exists
func (db *DBConnection) CreateDatabase(dbName string) {
	_, err := rethink.DBCreate(dbName).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Failed to create %v DB due to error %v", dbName, err)
	}
	rethink.DB(dbName).Wait()
}
