package services

import (
	"testing"

	"github.com/carlesonielfa/isthatslop-sub000/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, handle string) *models.User {
	t.Helper()

	user := &models.User{
		ID:            uuid.New(),
		Handle:        handle,
		DisplayName:   handle,
		Email:         handle + "@example.com",
		EmailVerified: true,
		IsActive:      true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user %s: %v", handle, err)
	}
	return user
}

func mustCreateSource(t *testing.T, registry *SourceRegistry, name string, parentID *uuid.UUID, createdBy uuid.UUID) *models.Source {
	t.Helper()

	source, err := registry.Create(CreateSourceInput{
		Name:      name,
		Type:      "channel",
		ParentID:  parentID,
		CreatedBy: createdBy,
	})
	if err != nil {
		t.Fatalf("Failed to create source %s: %v", name, err)
	}
	return source
}
