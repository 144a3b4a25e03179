package store

import (
	"encoding/json"
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// collection is the GORM row holding one whole-document JSON blob.
type collection struct {
	Key   string `gorm:"primaryKey;type:varchar(64)"`
	Value []byte
}

// GORMStore is a GORM implementation of Store.
type GORMStore struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the collection
// table. Supported drivers are "sqlite" and "postgres".
func Open(driver, dsn string) (*GORMStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewGORMStore(db)
}

// NewGORMStore wraps an existing GORM connection.
func NewGORMStore(db *gorm.DB) (*GORMStore, error) {
	if err := db.AutoMigrate(&collection{}); err != nil {
		return nil, fmt.Errorf("failed to migrate collection table: %w", err)
	}
	return &GORMStore{db: db}, nil
}

// Load reads the blob stored under key into out.
func (s *GORMStore) Load(key string, out interface{}) error {
	var row collection
	if err := s.db.First(&row, "key = ?", key).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return fmt.Errorf("failed to load collection %s: %w", key, err)
	}
	if err := json.Unmarshal(row.Value, out); err != nil {
		// A malformed blob is treated the same as an absent one.
		log.Printf("Discarding malformed blob for collection %s: %v", key, err)
	}
	return nil
}

// Save replaces the blob stored under key with the serialized form of v.
func (s *GORMStore) Save(key string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal collection %s: %w", key, err)
	}
	row := collection{Key: key, Value: body}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save collection %s: %w", key, err)
	}
	return nil
}

// Delete removes the blob stored under key.
func (s *GORMStore) Delete(key string) error {
	if err := s.db.Delete(&collection{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", key, err)
	}
	return nil
}
