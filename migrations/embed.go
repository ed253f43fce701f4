// Package migrations embeds goose SQL migrations.
package migrations

import "embed"

// FS holds the SQL files applied by internal/migrate.
//
//go:embed *.sql
var FS embed.FS
