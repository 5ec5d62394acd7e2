// Package database owns the shared gorm connection and schema migration.
package database

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/carlesonielfa/isthatslop-sub000/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the process-wide connection, set by Connect.
var DB *gorm.DB

// Config holds the postgres connection settings.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LoadConfig reads connection settings from the environment, with local
// development defaults.
func LoadConfig() *Config {
	return &Config{
		Host:     envOr("DB_HOST", "localhost"),
		Port:     envOr("DB_PORT", "5432"),
		User:     envOr("DB_USER", "postgres"),
		Password: envOr("DB_PASSWORD", ""),
		DBName:   envOr("DB_NAME", "isthatslop"),
		SSLMode:  envOr("DB_SSLMODE", "disable"),
	}
}

// dsn assembles the keyword/value connection string, leaving the password
// out entirely when none is set.
func (c *Config) dsn() string {
	parts := []string{
		"host=" + c.Host,
		"port=" + c.Port,
		"user=" + c.User,
		"dbname=" + c.DBName,
		"sslmode=" + c.SSLMode,
	}
	if c.Password != "" {
		parts = append(parts, "password="+c.Password)
	}
	return strings.Join(parts, " ")
}

// Connect opens the postgres connection and stores it in DB.
func Connect(config *Config) error {
	db, err := gorm.Open(postgres.Open(config.dsn()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Slug conflict handling relies on gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	log.Println("Successfully connected to database")
	return nil
}

// Migrate applies the schema for every registered model.
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database connection not established")
	}

	if err := models.AutoMigrate(DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// Close releases the underlying connection pool.
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
