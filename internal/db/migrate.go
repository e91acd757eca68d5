package db

import (
	"log/slog"
	"slices"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"carfix/internal/model"
)

// Migrate creates or updates every table. When reset is set all tables are
// dropped first, children before parents.
func Migrate(db *gorm.DB, reset bool, logger *slog.Logger) error {
	tables := model.All()

	if reset {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		dropOrder := slices.Clone(tables)
		slices.Reverse(dropOrder)
		for _, table := range dropOrder {
			if err := db.Migrator().DropTable(table); err != nil {
				logger.Warn("drop table failed (may not exist)", slog.Any("error", err))
			}
		}
	}

	if err := db.AutoMigrate(tables...); err != nil {
		return errors.Wrap(err, "auto-migrate")
	}
	return nil
}
