package db

import (
	"errors"
	"fmt"
	"log"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var Instance *gorm.DB

func Init(mysqlDSN, sqliteFile string) {
	db, err := Open(mysqlDSN, sqliteFile)
	if err != nil || db == nil {
		panic(err)
	}
	Instance = db
}

// Open connects to MySQL if mysqlDSN is set, otherwise to the SQLite file (or in-memory URI)
func Open(mysqlDSN, sqliteFile string) (*gorm.DB, error) {
	if mysqlDSN != "" {
		cfg, err := mysqldriver.ParseDSN(mysqlDSN)
		if err != nil {
			return nil, fmt.Errorf("invalid MYSQL_DSN: %w", err)
		}
		// created_at/updated_at are scanned into Go types
		cfg.ParseTime = true
		log.Printf("Using MySQL database %q at %s", cfg.DBName, cfg.Addr)
		return gorm.Open(mysql.Open(cfg.FormatDSN()), &gorm.Config{
			SkipDefaultTransaction: true,
			PrepareStmt:            true,
		})
	}
	if sqliteFile == "" {
		return nil, errors.New("either MYSQL_DSN or SQLITE_FILE must be configured")
	}
	log.Printf("Using SQLite database %s", sqliteFile)
	db, err := gorm.Open(sqlite.Open(sqliteFile), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY under concurrent votes
	sqlDB.SetMaxOpenConns(1)
	if err = db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}
	return db, nil
}

// IsMySQL reports whether row level locking (SELECT ... FOR UPDATE) is available
func IsMySQL(db *gorm.DB) bool {
	return db.Dialector.Name() == "mysql"
}
