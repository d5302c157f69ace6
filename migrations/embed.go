// Package migrations embeds the SQL schema applied by platform/db.Migrate.
package migrations

import "embed"

// FS holds the ordered *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
