package models_test

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/cpsportal/catalog_backend/models"
	"github.com/cpsportal/catalog_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestRepository opens a throwaway sqlite database in a temp directory,
// migrates the catalog tables and wires a Repository around it. The raw
// *gorm.DB is returned alongside so tests can seed rows directly.
func newTestRepository(t *testing.T) (*models.Repository, *gorm.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "catalog_test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return models.NewRepository(db, logger), db
}

func seedGoldDevice(t *testing.T, db *gorm.DB, device models.GoldDevice) models.GoldDevice {
	t.Helper()
	if err := db.Create(&device).Error; err != nil {
		t.Fatalf("failed to seed gold device %s: %v", device.DeviceUUID, err)
	}
	return device
}

// seedOverride inserts a field_overrides row directly, bypassing validation,
// so tests can shape arbitrary history. Pointer flags default to false and
// an explicit ChangedAt is preserved as given.
func seedOverride(t *testing.T, db *gorm.DB, override models.FieldOverride) models.FieldOverride {
	t.Helper()
	if override.EditorUserId == "" {
		override.EditorUserId = "tester@example.com"
	}
	if override.Source == "" {
		override.Source = models.OverrideSourceUI
	}
	if override.IsValidated == nil {
		override.IsValidated = utils.NewFalse()
	}
	if override.ApplyForAll == nil {
		override.ApplyForAll = utils.NewFalse()
	}
	if err := db.Create(&override).Error; err != nil {
		t.Fatalf("failed to seed override %s.%s: %v", override.DeviceUUID, override.FieldName, err)
	}
	return override
}
