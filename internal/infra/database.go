package infra

import (
	"context"
	"embed"
	"fmt"

	"taquilla/internal/model"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// NewDatabase establishes a GORM connection to Postgres. The schema is owned by
// the SQL migrations, not by AutoMigrate.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	return db, nil
}

// RunMigrations applies the embedded goose migrations (down rolls back the
// latest one instead).
func RunMigrations(ctx context.Context, db *gorm.DB, down bool) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if down {
		err = goose.DownContext(ctx, sqlDB, migrationsDir)
	} else {
		err = goose.UpContext(ctx, sqlDB, migrationsDir)
	}
	if err != nil {
		return fmt.Errorf("goose: %w", err)
	}
	return nil
}

// AutoMigrate creates the tables from the models. Used for the sqlite
// databases of tests and local experiments; Postgres goes through RunMigrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Usuario{},
		&model.PuntoVenta{},
		&model.Ticket{},
		&model.Reimpresion{},
		&model.PeticionImpresion{},
		&model.AuditLog{},
	)
}
