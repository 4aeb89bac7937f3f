package database

import (
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"backoffice/internal/model"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Country{},
		&model.City{},
		&model.Currency{},
		&model.Bank{},
		&model.BankAccount{},
		&model.Customer{},
		&model.ScopeOfWork{},
		&model.Supplier{},
		&model.Project{},
		&model.VariationOrder{},
		&model.Payment{},
		&model.ApprovalRequest{},
		&model.Notification{},
		&model.AuditLog{},
		&model.CodeCounter{},
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to auto-migrate models")
	}

	return db, nil
}
