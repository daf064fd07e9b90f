// Package migrations embeds the SQL migration files for the reviews database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
