package migrations

import "embed"

// FS contains embedded SQLite migrations for the version store.
//
//go:embed *.sql
var FS embed.FS
