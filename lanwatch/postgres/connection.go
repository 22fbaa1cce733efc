// Package postgres provides the gorm-backed implementations of the
// lanwatch storage ports: the device/event document store and the
// metric-point time series. Despite the name it also supports sqlite for
// single-box installs.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/LanWatch/go-monitor/lanwatch/postgres/models"
)

// Connect opens the database for the given driver ("postgres" | "sqlite")
// and migrates the monitor schema. Connection failures are returned to the
// caller; the daemon treats them as fatal at startup.
func Connect(driver, dsn string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "sqlite", "":
		db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if err := db.AutoMigrate(
		&models.Device{},
		&models.DeviceIP{},
		&models.Event{},
		&models.MetricPoint{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}
