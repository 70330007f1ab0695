package migrations

import "embed"

// FS contains embedded SQLite migrations for the command audit log.
//
//go:embed *.sql
var FS embed.FS
