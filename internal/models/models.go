// Package models contains all data models for the isthatslop application
package models

import (
	"gorm.io/gorm"
)

// AllModels returns a slice of all model types for database migrations
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Source{},
		&SourceAncestorPath{},
		&Claim{},
		&ClaimVote{},
		&SourceScoreCache{},
		&AuditLog{},
	}
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
