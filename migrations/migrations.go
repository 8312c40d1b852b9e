// Package migrations embeds the versioned Postgres schema.
package migrations

import "embed"

// FS holds the golang-migrate formatted *.up.sql / *.down.sql files.
//
//go:embed *.sql
var FS embed.FS
