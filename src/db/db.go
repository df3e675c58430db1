package db

import (
	"log"
	"meetingroom/src/config"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db *gorm.DB
	mu sync.Mutex
)

const connectAttempts = 5

func GetDb() *gorm.DB {
	mu.Lock()
	defer mu.Unlock()
	if db != nil {
		return db
	}
	_db, err := connect(config.GetDSN())
	if err != nil {
		log.Printf("Error connecting to database: %s\n", err.Error())
		panic(err)
	}
	sqlDB, err := _db.DB()
	if err != nil {
		log.Fatalf("Error establishing connection to database: %s\n", err.Error())
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	db = _db
	return _db
}

func connect(dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{}
	if config.IsProd() {
		gcfg.Logger = logger.Default.LogMode(logger.Warn)
	}
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		_db, err := gorm.Open(postgres.Open(dsn), gcfg)
		if err == nil {
			return _db, nil
		}
		lastErr = err
		log.Printf("Database not ready (attempt %d/%d): %s\n", attempt, connectAttempts, err.Error())
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return nil, lastErr
}

func NewDB(newdb *gorm.DB) {
	mu.Lock()
	defer mu.Unlock()
	db = newdb
}
