package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kodustech/activity-tracker/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultDBName = "activity.db"
	defaultDBDir  = ".config/activity-tracker"

	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"
)

type DB struct {
	*gorm.DB

	// writer runs transactions as BEGIN IMMEDIATE. A deferred transaction
	// that reads before writing fails at once with SQLITE_BUSY when another
	// connection commits in between; an immediate one waits on the busy
	// timeout instead. Nil for in-memory databases, which have one connection.
	writer *gorm.DB
}

func GetDefaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dbDir := filepath.Join(homeDir, defaultDBDir)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}

	return filepath.Join(dbDir, defaultDBName), nil
}

// Connect opens the SQLite database at dbPath. An empty path selects the
// default location; MemoryPath opens an in-memory database.
func Connect(dbPath string) (*DB, error) {
	if dbPath == "" {
		var err error
		dbPath, err = GetDefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	memory := dbPath == MemoryPath || strings.Contains(dbPath, "mode=memory")

	dsn := dbPath
	if !memory {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// WAL lets stats queries read while the sampler writes.
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	}

	db, err := open(dsn)
	if err != nil {
		return nil, err
	}

	if memory {
		// Every new connection to :memory: is a fresh, empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		return &DB{DB: db}, nil
	}

	writer, err := open(dsn + "&_txlock=immediate")
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, err
	}

	return &DB{DB: db, writer: writer}, nil
}

func open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Writer returns the handle every mutation goes through.
func (db *DB) Writer() *gorm.DB {
	if db.writer != nil {
		return db.writer
	}
	return db.DB
}

// ConnectMemory opens and initializes an in-memory database.
func ConnectMemory() (*DB, error) {
	db, err := Connect(MemoryPath)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) Initialize() error {
	err := db.AutoMigrate(
		&models.Activity{},
		&models.Category{},
		&models.AppCategory{},
		&models.Setting{},
		&models.ErrorLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return nil
}

func (db *DB) Close() error {
	if db.writer != nil {
		if sqlDB, err := db.writer.DB(); err == nil {
			sqlDB.Close()
		}
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
