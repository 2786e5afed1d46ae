package migrations

import "embed"

// FS contains the embedded SQLite migrations for submission storage.
//
//go:embed *.sql
var FS embed.FS
