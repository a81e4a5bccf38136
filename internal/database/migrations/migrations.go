// Package migrations embeds the MySQL schema migrations applied by
// database.Migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
