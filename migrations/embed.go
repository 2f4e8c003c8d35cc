// Package migrations embeds the SQL schema applied by `hms-server migrate up`.
package migrations

import "embed"

// FS holds the versioned migration files.
//
//go:embed *.sql
var FS embed.FS
