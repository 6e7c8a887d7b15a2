package session

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mesobkitchen/orderdesk/internal/models"
)

// Store is the persisted client state, a small key-value table standing in
// for the browser's local storage. Fixed keys, cleared together on logout.
type Store struct {
	db *gorm.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	if err := db.AutoMigrate(&models.StateEntry{}); err != nil {
		return nil, fmt.Errorf("migrate state store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(key string) (string, bool) {
	var entry models.StateEntry
	if err := s.db.First(&entry, "key = ?", key).Error; err != nil {
		return "", false
	}
	return entry.Value, true
}

func (s *Store) Set(key, value string) error {
	entry := models.StateEntry{Key: key, Value: value}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *Store) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.Delete(&models.StateEntry{}, "key IN ?", keys).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
