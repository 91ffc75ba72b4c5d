// Package migration keeps an ordered registry of schema migrations and
// applies the ones a database has not seen yet.
package migration

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

// MigrationFunc applies one schema change.
type MigrationFunc func(db *gorm.DB) error

// SchemaMigration records an applied migration.
type SchemaMigration struct {
	ID        string    `gorm:"primaryKey;size:100"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName for SchemaMigration
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

var (
	mu       sync.Mutex
	registry = map[string]MigrationFunc{}
)

// Register adds a migration under id. Ids sort lexically, so they are
// prefixed with the date they were written.
func Register(id string, fn MigrationFunc) error {
	mu.Lock()
	defer mu.Unlock()

	if id == "" {
		return fmt.Errorf("migration id is required")
	}
	if fn == nil {
		return fmt.Errorf("migration %s has no function", id)
	}
	if _, exists := registry[id]; exists {
		return fmt.Errorf("migration %s already registered", id)
	}
	registry[id] = fn
	return nil
}

// Registered returns the ids of every known migration in apply order.
func Registered() []string {
	mu.Lock()
	defer mu.Unlock()

	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MigrateDB applies every registered migration that has not been recorded in
// schema_migrations. Each migration runs in its own transaction together with
// its bookkeeping row.
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []SchemaMigration
	if err := db.Find(&applied).Error; err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, m := range applied {
		done[m.ID] = true
	}

	for _, id := range Registered() {
		if done[id] {
			continue
		}
		mu.Lock()
		fn := registry[id]
		mu.Unlock()

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{ID: id, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s: %w", id, err)
		}
	}
	return nil
}
