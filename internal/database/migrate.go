package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/iliyamo/care-records/internal/database/migrations"
)

// MigrationSource returns the embedded schema migrations.
func MigrationSource() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{FileSystem: migrations.FS, Root: "."}
}

// Migrate applies every pending migration and reports how many ran.
func Migrate(db *sqlx.DB) (int, error) {
	n, err := migrate.Exec(db.DB, "mysql", MigrationSource(), migrate.Up)
	if err != nil {
		return n, fmt.Errorf("applying migrations: %w", err)
	}
	return n, nil
}
