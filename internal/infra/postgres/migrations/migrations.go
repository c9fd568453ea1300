package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds every schema change, registered by the numbered files in this package.
var Migrations = migrate.NewMigrations()
