package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Options struct {
	Driver   string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	Verbose  bool
}

// Connect opens the primary database. Driver "sqlite" treats Name as a file path,
// which is handy for local runs without postgres.
func Connect(opts Options) (*gorm.DB, error) {
	if opts.Driver == "sqlite" {
		return OpenSQLite(opts.Name, opts.Verbose)
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		opts.Host,
		opts.User,
		opts.Password,
		opts.Name,
		opts.Port,
	)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig(opts.Verbose))
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a sqlite database. Use ":memory:" for a throwaway one; the pool is
// pinned to a single connection so every query sees the same in-memory schema.
func OpenSQLite(path string, verbose bool) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(verbose))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func gormConfig(verbose bool) *gorm.Config {
	level := gormlogger.Silent
	if verbose {
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	}
}
