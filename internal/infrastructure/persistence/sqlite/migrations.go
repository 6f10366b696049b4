package sqlite

import "embed"

// Migrations holds the schema files applied by the migrate command
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations holding the schema files
const MigrationsDir = "migrations"
