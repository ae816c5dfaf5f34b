package main

import (
	"gorm.io/gorm"

	"github.com/archdrift/engine/internal/models"
)

// registerModels returns all models that need migration
func registerModels() []interface{} {
	return []interface{}{
		&models.Project{},
		&models.Scan{},
		&models.GraphNode{},
		&models.GraphEdge{},
		&models.Violation{},
	}
}

// runMigrations executes all database migrations
func runMigrations(db *gorm.DB) error {
	// UUID generation must exist before AutoMigrate creates the tables
	if err := enableUUIDExtension(db); err != nil {
		return err
	}

	if err := db.AutoMigrate(registerModels()...); err != nil {
		return err
	}

	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		addRulesGinIndex,
	}

	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}

	return nil
}

// enableUUIDExtension ensures UUID generation is available
func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

// addRulesGinIndex speeds up containment queries over the rules document
func addRulesGinIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_projects_rules
		ON projects USING gin (rules)
	`).Error
}
