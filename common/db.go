package common

import (
	"os"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectDb opens the sqlite database named by the sqlite_db env var.
// TranslateError is required: the slug uniqueness workflow relies on
// gorm.ErrDuplicatedKey surfacing from the unique index.
func ConnectDb(log zerolog.Logger) *gorm.DB {
	dbFile := os.Getenv("sqlite_db")
	if dbFile == "" {
		log.Error().Msg("sqlite_db not set")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Error().Err(err).Str("file", dbFile).Msg("error opening sqlite db")
		return nil
	}
	log.Info().Str("file", dbFile).Msg("opened sqlite db")
	return db
}
