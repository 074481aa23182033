package infra

import (
	"fmt"
	"strings"

	"livraria/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DatabaseOptions selects the dialector and whether tables are created on boot.
type DatabaseOptions struct {
	Driver      string // postgres | sqlite
	DSN         string
	AutoMigrate bool
	Debug       bool
}

// NewDatabase opens a GORM connection for the configured driver, tunes the
// pool and optionally creates the tables the purchase workflow needs.
func NewDatabase(opts DatabaseOptions) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "postgres", "":
		dialector = postgres.Open(opts.DSN)
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(opts.DSN))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(opts.Debug),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.Driver == "sqlite" {
		// One writer at a time; SQLite serializes transactions at file level.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	if opts.AutoMigrate {
		if err := RunMigrations(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// sqliteDSN enables foreign keys and a busy timeout on every connection.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// RunMigrations creates or updates the tables used by the service.
// Also used by tests to prepare a throwaway database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Admin{},
		&model.Usuario{},
		&model.Livro{},
		&model.Compra{},
		&model.MovimentoEstoque{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return nil
}
