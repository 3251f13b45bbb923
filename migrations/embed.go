package migrations

import "embed"

// FS holds the numbered SQL migrations applied by database.RunMigrations.
// Files are named NNN_description.sql and run in lexical order.
//
//go:embed *.sql
var FS embed.FS
