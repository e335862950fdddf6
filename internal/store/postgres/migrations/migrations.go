// Package migrations embeds the schema for the PostgreSQL cart store.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files, applied by database.RunMigrations.
//
//go:embed *.sql
var FS embed.FS
