package db

import (
	"log/slog"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewMySQL returns a connected GORM DB instance. Driver errors are translated
// into gorm sentinels (gorm.ErrDuplicatedKey) so repositories can match them.
func NewMySQL(dsn string, logger *slog.Logger, debug bool) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         newGormSlogLogger(logger, debug),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect mysql")
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	return sqlDB.Close()
}
