package config

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	log "github.com/sirupsen/logrus"
)

func newMigrate() *migrate.Migrate {
	db, err := DB.DB()
	if err != nil {
		log.Fatalf("Failed to get database connection: %v", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatalf("Failed to create postgres driver: %v", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+getEnvDefault("MIGRATIONS_DIR", "migrations"),
		"postgres",
		driver,
	)
	if err != nil {
		log.Fatalf("Failed to create migrate instance: %v", err)
	}
	return m
}

// ExecuteMigrations applies every pending migration.
func ExecuteMigrations() {
	m := newMigrate()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Info("Database migrations completed successfully")
}

// RollbackMigration reverts the most recent migration.
func RollbackMigration() {
	m := newMigrate()
	if err := m.Steps(-1); err != nil {
		log.Fatalf("Failed to rollback migration: %v", err)
	}
	log.Info("Migration rolled back successfully")
}
