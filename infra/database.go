// Package infra provides the database connection and schema migration for
// the appointment store.
package infra

import (
	"errors"
	"time"

	infraappointment "github.com/amirasaad/appointments/infra/repository/appointment"
	inframessage "github.com/amirasaad/appointments/infra/repository/message"
	"github.com/amirasaad/appointments/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens the Postgres connection described by cnf. The SQL
// log mode follows appEnv; the unit of work owns transactions, so GORM's
// per-write default transaction is skipped.
func NewDBConnection(
	cnf *config.DB,
	appEnv string,
) (*gorm.DB, error) {
	if cnf == nil || cnf.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}

	connection, err := gorm.Open(postgres.Open(cnf.Url), &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	return connection, nil
}

// Migrate creates or updates the appointment and message tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&infraappointment.Appointment{},
		&infraappointment.AllocationLeg{},
		&infraappointment.RemittanceDetail{},
		&inframessage.Message{},
		&inframessage.MessageLine{},
	)
}
